package bench

import (
	"os"

	"github.com/cbroglie/mustache"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

// TemplateContext builds the mustache context for one variant.
func TemplateContext(which string, m, n int) map[string]any {
	ns := make([]map[string]int, n)
	for i := range ns {
		ns[i] = map[string]int{"n": i}
	}
	ms := make([]map[string]int, m)
	for i := range ms {
		ms[i] = map[string]int{"m": i}
	}
	return map[string]any{
		"N":   ns,
		"M":   ms,
		which: true,
	}
}

// EvaluateTemplate renders a benchmark template for which with m repetitions at size n.
func EvaluateTemplate(tmpl, which string, m, n int) (string, error) {
	out, err := mustache.Render(tmpl, TemplateContext(which, m, n))
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryValidation, "failed to render benchmark template").
			Fatal().WithContext("which", which).Build()
	}
	return out, nil
}

// RenderFile renders the template at src into dst.
func RenderFile(src, dst, which string, m, n int) error {
	tmpl, err := os.ReadFile(src)
	if err != nil {
		return ferrors.NotFoundError("failed to read benchmark template").WithCause(err).
			WithContext("path", src).Build()
	}
	out, err := EvaluateTemplate(string(tmpl), which, m, n)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, []byte(out), 0o644); err != nil {
		return ferrors.FileSystemError("failed to write generated benchmark").WithCause(err).
			Fatal().WithContext("path", dst).Build()
	}
	return nil
}
