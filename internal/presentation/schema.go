package presentation

import (
	_ "embed"
	"fmt"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
	"github.com/ziadkadry99/zoomdeck/internal/deck"
)

//go:embed patch.schema.json
var patchSchemaJSON []byte

var patchSchema = mustSchema(patchSchemaJSON)

func mustSchema(b []byte) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
	if err != nil {
		panic(fmt.Sprintf("presentation: bad patch schema: %v", err))
	}
	return s
}

// ValidatePatch checks a raw PATCH body against the patch schema. The
// returned error wraps deck.ErrInvalid and lists every violation.
func ValidatePatch(body []byte) error {
	result, err := patchSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", deck.ErrInvalid, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", deck.ErrInvalid, strings.Join(msgs, "; "))
}
