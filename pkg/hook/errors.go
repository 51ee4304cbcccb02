package hook

import (
	"fmt"

	"github.com/fulmenhq/prekit/pkg/hookconfig"
)

// HookNotFoundError reports a configured hook id missing from its repo.
type HookNotFoundError struct {
	Hook string
	Repo string
}

func (e *HookNotFoundError) Error() string {
	return fmt.Sprintf("hook %q not found in repo %s", e.Hook, e.Repo)
}

// DependencyNotSupportedError reports additional_dependencies declared for a
// language that cannot install them.
type DependencyNotSupportedError struct {
	Hook     string
	Language hookconfig.Language
}

func (e *DependencyNotSupportedError) Error() string {
	return fmt.Sprintf("hook %q declares additional_dependencies but language %q does not support them", e.Hook, e.Language)
}
