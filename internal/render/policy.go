package render

import "github.com/microcosm-cc/bluemonday"

// DefaultPolicy is the sanitizer for rendered pages. It extends the UGC
// baseline with the attributes the wiki constructs emit: classed divs and
// links for thumbs and floats, sized images, titled anchors.
func DefaultPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class", "id").Globally()
	policy.AllowAttrs("width", "height").OnElements("img")
	policy.AllowAttrs("title").OnElements("a")
	return policy
}
