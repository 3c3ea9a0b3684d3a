package diag

import "keel/internal/source"

// Reporter принимает готовые диагностики. Реализации должны быть безопасны
// для вызова из нескольких воркеров раскладки.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// ReportBuilder collects notes and fixes, then hands the diagnostic to a
// Reporter on Emit. A nil builder ignores every call.
type ReportBuilder struct {
	reporter Reporter
	diag     Diagnostic
	emitted  bool
}

func NewReportBuilder(r Reporter, sev Severity, code Code, primary source.Span, msg string) *ReportBuilder {
	return &ReportBuilder{reporter: r, diag: New(sev, code, primary, msg)}
}

func ReportError(r Reporter, code Code, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevError, code, primary, msg)
}

func ReportWarning(r Reporter, code Code, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevWarning, code, primary, msg)
}

func ReportInfo(r Reporter, code Code, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevInfo, code, primary, msg)
}

func (b *ReportBuilder) WithNote(sp source.Span, msg string) *ReportBuilder {
	if b != nil {
		b.diag = b.diag.WithNote(sp, msg)
	}
	return b
}

func (b *ReportBuilder) WithFix(title string, edits ...FixEdit) *ReportBuilder {
	if b != nil {
		b.diag = b.diag.WithFix(title, edits...)
	}
	return b
}

// Emit reports the diagnostic; later calls do nothing.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted {
		return
	}
	b.emitted = true
	if b.reporter != nil {
		b.reporter.Report(b.diag)
	}
}

// Diagnostic returns what Emit would report.
func (b *ReportBuilder) Diagnostic() Diagnostic {
	if b == nil {
		return Diagnostic{}
	}
	return b.diag
}

// BagReporter collects into Bag; a nil Bag drops everything.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag != nil {
		r.Bag.Add(d)
	}
}

// NopReporter drops everything.
type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}
