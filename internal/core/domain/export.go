package domain

import "fmt"

// Layout selects the PDF page geometry.
type Layout string

const (
	// LayoutStandard is A4 portrait with desktop-reading margins.
	LayoutStandard Layout = "standard"
	// LayoutMobile is a 4.5in x 7in page sized for phone screens.
	LayoutMobile Layout = "mobile"
)

// Validate checks that the layout is a known value.
func (l Layout) Validate() error {
	switch l {
	case LayoutStandard, LayoutMobile:
		return nil
	}
	return fmt.Errorf("%w: unknown layout %q", ErrInvalidInput, string(l))
}

// Quality selects the export quality tier. Rendering is identical
// across tiers; the tier is recorded in the suggested filename so
// repeated exports do not overwrite each other.
type Quality string

const (
	// QualityStandard is the default tier.
	QualityStandard Quality = "standard"
	// QualityHigh marks a high-quality export.
	QualityHigh Quality = "high"
	// QualityPrint marks a print-oriented export.
	QualityPrint Quality = "print"
)

// Validate checks that the quality is a known value.
func (q Quality) Validate() error {
	switch q {
	case QualityStandard, QualityHigh, QualityPrint:
		return nil
	}
	return fmt.Errorf("%w: unknown quality %q", ErrInvalidInput, string(q))
}

// ExportOptions configures a PDF export.
type ExportOptions struct {
	// Layout selects the page geometry.
	Layout Layout

	// Quality selects the quality tier (filename only).
	Quality Quality

	// IncludeTitlePage renders a title page before the first chapter.
	IncludeTitlePage bool
}

// DefaultExportOptions returns the standard A4 export configuration.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Layout:           LayoutStandard,
		Quality:          QualityStandard,
		IncludeTitlePage: true,
	}
}

// Validate checks both the layout and quality values.
func (o ExportOptions) Validate() error {
	if err := o.Layout.Validate(); err != nil {
		return err
	}
	return o.Quality.Validate()
}
