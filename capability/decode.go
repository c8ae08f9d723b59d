package capability

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Decode decodes an accepted partition into out, a pointer to the target's
// options struct. Values are weakly typed ("5s" becomes a time.Duration,
// "a,b" a []string) and a key with no matching field is an error.
func Decode(opts *Options, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Squash:           true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("capability: building decoder: %w", err)
	}
	if err := dec.Decode(opts.Map()); err != nil {
		return fmt.Errorf("capability: decoding options: %w", err)
	}
	return nil
}
