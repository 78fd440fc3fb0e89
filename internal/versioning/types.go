package versioning

// Labels of the synthetic entries that lead the selector.
const (
	MainValue   = "main"
	MainLabel   = "git-main"
	LatestLabel = "latest"
)

// SelectorMarker is the exact text in the selector template that receives the version list.
const SelectorMarker = "const versions = []"

// IndexMarker is replaced with the newest published version in the redirect page.
const IndexMarker = "{{latest_version}}"

// Default output file names, written next to the published version directories.
const (
	SelectorFile = "version-selector.js"
	IndexFile    = "index.html"
)

// Entry is one option of the documentation version selector: the directory the
// option points at and the text it displays.
type Entry struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
