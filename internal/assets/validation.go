package assets

import (
	"fmt"
	"strings"
)

// ValidateAssetName rejects names that are empty or contain path separators
// or dots, so a name can only ever address a file directly under styles/.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, `/\.`) {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
