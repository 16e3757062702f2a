package topics

// Renderer formats topic content for terminal display. The format
// argument is the topic's file extension, including the dot.
type Renderer interface {
	Render(content string, format string) string
}

// PlainRenderer returns content unchanged regardless of format.
type PlainRenderer struct{}

// Render returns the content as-is.
func (r *PlainRenderer) Render(content string, format string) string {
	return content
}
