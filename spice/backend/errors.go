package backend

// ErrKind 定义后端层统一的错误类别。
type ErrKind string

const (
	ErrValidation ErrKind = "validation"
	ErrSpice      ErrKind = "spice"
	ErrStaging    ErrKind = "staging"
	ErrInit       ErrKind = "init"
	ErrTransport  ErrKind = "transport"
	ErrInternal   ErrKind = "internal"
)

// SpiceError 是后端适配层返回的统一错误结构。
// Short/Long/Trace 仅在 Kind == ErrSpice 时由底层库填充。
type SpiceError struct {
	Kind    ErrKind
	Message string
	Short   string
	Long    string
	Trace   string
	Cause   error
}

func (e *SpiceError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Short != "" {
		msg = e.Short
	}
	if msg != "" {
		return string(e.Kind) + ": " + msg
	}
	return string(e.Kind)
}

func (e *SpiceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Validation 构造编解码层参数校验错误。永远在底层调用之前抛出。
func Validation(message string) *SpiceError {
	return &SpiceError{Kind: ErrValidation, Message: message}
}

// FromDetail 用底层库捕获的结构化字段构造 SPICE 错误。
func FromDetail(message string, detail SpiceErrorDetail) *SpiceError {
	return &SpiceError{
		Kind:    ErrSpice,
		Message: message,
		Short:   detail.Short,
		Long:    detail.Long,
		Trace:   detail.Trace,
	}
}
