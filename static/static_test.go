package static

import (
	"testing"

	"github.com/rybosome/gospice/spice/verify"
)

func TestEmbeddedScenariosLoad(t *testing.T) {
	scenarios, err := verify.LoadScenarios(Scenarios, "scenarios")
	if err != nil {
		t.Fatalf("内嵌场景应可读取: %v", err)
	}
	if len(scenarios) < 4 {
		t.Fatalf("场景数不符: %d", len(scenarios))
	}
	for _, s := range scenarios {
		if s.Call == "" || s.Name == "" {
			t.Fatalf("场景字段不完整: %+v", s)
		}
	}
}
