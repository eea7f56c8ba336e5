package services

import (
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// maxTags caps the number of tag names kept per source.
const maxTags = 5

// joinTags joins the "name" of the first maxTags entries of a JSON tag array with "; ".
// Anything that is not an array yields an empty string.
func joinTags(tags gjson.Result) string {
	if !tags.IsArray() {
		return ""
	}
	arr := tags.Array()
	if len(arr) > maxTags {
		arr = arr[:maxTags]
	}
	names := lo.FilterMap(arr, func(t gjson.Result, _ int) (string, bool) {
		name := strings.TrimSpace(t.Get("name").String())
		return name, name != ""
	})
	return strings.Join(names, "; ")
}
