package port

// StylesheetWriter persists the aggregated stylesheet. Each call is a full
// overwrite of the previous content.
type StylesheetWriter interface {
	WriteStylesheet(css string) error
}
