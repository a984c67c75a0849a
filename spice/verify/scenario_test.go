package verify

import (
	"context"
	"testing"

	"github.com/rybosome/gospice/spice/backend"
)

type scenarioBackend struct {
	backend.SpiceBackend
	furnshed []string
	cleared  bool
}

func (s *scenarioBackend) Furnsh(k backend.KernelSource) error {
	s.furnshed = append(s.furnshed, k.Path)
	return nil
}

func (s *scenarioBackend) Kclear() error {
	s.cleared = true
	return nil
}

func (s *scenarioBackend) Str2et(string) (float64, error) {
	return 42.5, nil
}

func (s *scenarioBackend) Spkezr(string, float64, string, string, string) (backend.State6, float64, error) {
	return backend.State6{}, 0, backend.FromDetail("spkezr 调用失败", backend.SpiceErrorDetail{
		Short: "SPICE(SPKINSUFFDATA)",
	})
}

func TestScenarioAgreement(t *testing.T) {
	bin := writeOracleScript(t, `{"ok":true,"result":42.5}`)
	b := &scenarioBackend{}
	s := Scenario{
		Name:  "str2et",
		Setup: OracleSetup{Kernels: []string{"naif0012.tls"}},
		Call:  "str2et",
		Args:  []any{"2000 JAN 01 12:00:00"},
	}
	mismatches, err := s.Run(context.Background(), b, &Oracle{Bin: bin})
	if err != nil {
		t.Fatalf("场景执行应成功: %v", err)
	}
	if len(mismatches) != 0 {
		t.Fatalf("双方一致不应有差异: %v", mismatches)
	}
	if len(b.furnshed) != 1 || b.furnshed[0] != "naif0012.tls" {
		t.Fatalf("setup 内核未装载: %v", b.furnshed)
	}
	if !b.cleared {
		t.Fatal("场景结束应清空内核池")
	}
}

func TestScenarioDisagreementReported(t *testing.T) {
	bin := writeOracleScript(t, `{"ok":true,"result":43.0}`)
	s := Scenario{Call: "str2et", Args: []any{"x"}}
	mismatches, err := s.Run(context.Background(), &scenarioBackend{}, &Oracle{Bin: bin})
	if err != nil {
		t.Fatalf("场景执行应成功: %v", err)
	}
	if len(mismatches) == 0 {
		t.Fatal("数值分歧必须报告为差异")
	}
}

func TestScenarioMatchingFailures(t *testing.T) {
	bin := writeOracleScript(t,
		`{"ok":false,"error":{"message":"no data","spiceShort":"SPICE(SPKINSUFFDATA)"}}`)
	s := Scenario{
		Call:    "spkezr",
		Args:    []any{"EARTH", 0, "J2000", "NONE", "SUN"},
		Options: CompareOptions{ErrorShortOnly: true},
	}
	mismatches, err := s.Run(context.Background(), &scenarioBackend{}, &Oracle{Bin: bin})
	if err != nil {
		t.Fatalf("场景执行应成功: %v", err)
	}
	if len(mismatches) != 0 {
		t.Fatalf("两侧同短码失败应判等: %v", mismatches)
	}
}
