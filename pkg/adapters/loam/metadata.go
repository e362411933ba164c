package loam

// DocumentMetadata is the frontmatter of a document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type DocumentMetadata struct {
	ID            string   `json:"id" mapstructure:"id"`
	Title         string   `json:"title" mapstructure:"title"`
	Description   string   `json:"description" mapstructure:"description"`
	WorkflowState string   `json:"workflow_state" mapstructure:"workflow_state"`
	Tags          []string `json:"tags" mapstructure:"tags"`

	// General Metadata
	Metadata map[string]string `json:"metadata" mapstructure:"metadata"`
}
