//go:build darwin

package stdio

import "strings"

var allowedCommandPrefixes = []string{
	"/usr/bin/", "/usr/local/bin/", "/bin/", "/opt/homebrew/bin/",
	"/usr/sbin/", "/sbin/", "/Applications/",
}

func isAbsolutePath(command string) bool {
	return strings.HasPrefix(command, "/")
}
