//go:build linux

package stdio

import "strings"

var allowedCommandPrefixes = []string{
	"/usr/bin/", "/usr/local/bin/", "/bin/",
	"/usr/sbin/", "/sbin/", "/snap/bin/", "/var/lib/flatpak/", "/home/",
}

func isAbsolutePath(command string) bool {
	return strings.HasPrefix(command, "/")
}
