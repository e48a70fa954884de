package stdio

import (
	"fmt"
	"strings"
)

// dangerousChars is the fixed shell-metacharacter set rejected in the
// command or any argument, ported from the C++ reference's
// is_safe_command.
const dangerousChars = ";|&$`\\\"'<>(){}[]!#~"

// validateCommand rejects commands/arguments containing shell
// metacharacters and absolute paths outside allowedCommandPrefixes.
// Relative commands are accepted and left to OS PATH resolution.
func validateCommand(command string, args []string) error {
	if command == "" {
		return fmt.Errorf("stdio: command must not be empty")
	}
	if strings.ContainsAny(command, dangerousChars) {
		return fmt.Errorf("stdio: command contains disallowed characters")
	}
	for _, arg := range args {
		if strings.ContainsAny(arg, dangerousChars) {
			return fmt.Errorf("stdio: argument contains disallowed characters")
		}
	}
	if isAbsolutePath(command) {
		allowed := false
		for _, prefix := range allowedCommandPrefixes {
			if strings.HasPrefix(command, prefix) {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("stdio: absolute command path %q is not in the allowed prefix list", command)
		}
	}
	return nil
}
