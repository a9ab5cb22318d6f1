package completion

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PlaceholderExpander turns placeholders such as <file> or <hostname> into
// concrete candidates for the word being completed.
type PlaceholderExpander struct {
	// Dir resolves relative file and directory prefixes. Empty means the
	// process working directory.
	Dir string
	// HomeDir locates ~/.ssh and expands a leading "~/". Empty means
	// os.UserHomeDir.
	HomeDir string
	// PasswdFile lists local users. Empty means /etc/passwd.
	PasswdFile string
}

// IsPlaceholder reports whether s is one of the known placeholders.
func IsPlaceholder(s string) bool {
	switch s {
	case PlaceholderFile, PlaceholderDirectory, PlaceholderHostname, PlaceholderUser:
		return true
	}
	return false
}

// Expand returns the candidates placeholder stands for, restricted to those
// starting with prefix. ok is false for unknown placeholders.
func (p *PlaceholderExpander) Expand(placeholder, prefix string) (candidates []Candidate, ok bool) {
	switch placeholder {
	case PlaceholderFile:
		return p.paths(prefix, false), true
	case PlaceholderDirectory:
		return p.paths(prefix, true), true
	case PlaceholderHostname:
		return withPrefix(p.hosts(), prefix, "SSH Host"), true
	case PlaceholderUser:
		return withPrefix(p.users(), prefix, "User"), true
	}
	return nil, false
}

func withPrefix(values []string, prefix, description string) []Candidate {
	var out []Candidate
	for _, v := range values {
		if strings.HasPrefix(v, prefix) {
			out = append(out, Candidate{Value: v, Description: description})
		}
	}
	return out
}

func (p *PlaceholderExpander) home() string {
	if p.HomeDir != "" {
		return p.HomeDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// paths lists entries of the directory named by prefix whose names start
// with the rest of prefix. Hidden entries only show up when asked for with
// a leading dot. Directories carry a trailing separator.
func (p *PlaceholderExpander) paths(prefix string, dirsOnly bool) []Candidate {
	dirPart, base := splitPathPrefix(prefix)

	lookup := dirPart
	if strings.HasPrefix(lookup, "~/") {
		lookup = filepath.Join(p.home(), lookup[2:])
	}
	if !filepath.IsAbs(lookup) {
		root := p.Dir
		if root == "" {
			root, _ = os.Getwd()
		}
		lookup = filepath.Join(root, lookup)
	}

	entries, err := os.ReadDir(lookup)
	if err != nil {
		return nil
	}

	var out []Candidate
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}

		isDir := entry.IsDir()
		if !isDir && entry.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(lookup, name)); err == nil {
				isDir = info.IsDir()
			}
		}
		if dirsOnly && !isDir {
			continue
		}

		c := Candidate{Value: dirPart + name, Description: "File"}
		if isDir {
			c.Value += string(os.PathSeparator)
			c.Description = "Directory"
		}
		out = append(out, c)
	}
	return out
}

// splitPathPrefix splits "src/ma" into "src/" and "ma". The directory part
// keeps its trailing separator so it can be glued back onto entry names.
func splitPathPrefix(prefix string) (dir, base string) {
	i := strings.LastIndex(prefix, string(os.PathSeparator))
	if i < 0 {
		return "", prefix
	}
	return prefix[:i+1], prefix[i+1:]
}

// hosts collects host names from ~/.ssh/config (following Include) and
// ~/.ssh/known_hosts.
func (p *PlaceholderExpander) hosts() []string {
	sshDir := filepath.Join(p.home(), ".ssh")

	hosts := make(map[string]bool)
	parseSSHConfig(filepath.Join(sshDir, "config"), sshDir, p.home(), hosts, make(map[string]bool))
	parseKnownHosts(filepath.Join(sshDir, "known_hosts"), hosts)

	return sortedKeys(hosts)
}

// users lists login names from the passwd file.
func (p *PlaceholderExpander) users() []string {
	path := p.PasswdFile
	if path == "" {
		path = "/etc/passwd"
	}

	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() {
		_ = file.Close()
	}()

	users := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if name, _, found := strings.Cut(line, ":"); found && name != "" {
			users[name] = true
		}
	}
	return sortedKeys(users)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseSSHConfig adds every concrete Host alias in configPath to hosts and
// descends into Include directives. visited guards against include loops.
func parseSSHConfig(configPath, sshDir, home string, hosts, visited map[string]bool) {
	absPath, err := filepath.Abs(configPath)
	if err != nil || visited[absPath] {
		return
	}
	visited[absPath] = true

	file, err := os.Open(configPath)
	if err != nil {
		return
	}
	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "host":
			for _, host := range fields[1:] {
				// patterns and negations are not completable names
				if !strings.ContainsAny(host, "*?!") {
					hosts[host] = true
				}
			}
		case "include":
			for _, pattern := range fields[1:] {
				if strings.HasPrefix(pattern, "~") {
					pattern = filepath.Join(home, pattern[1:])
				}
				if !filepath.IsAbs(pattern) {
					pattern = filepath.Join(sshDir, pattern)
				}
				matches, err := filepath.Glob(pattern)
				if err != nil {
					continue
				}
				for _, match := range matches {
					parseSSHConfig(match, sshDir, home, hosts, visited)
				}
			}
		}
	}
}

// parseKnownHosts adds host names from a known_hosts file. Hashed entries,
// wildcards and bare IP addresses are skipped.
func parseKnownHosts(knownHostsPath string, hosts map[string]bool) {
	file, err := os.Open(knownHostsPath)
	if err != nil {
		return
	}
	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		// @cert-authority / @revoked markers precede the host field
		if strings.HasPrefix(fields[0], "@") {
			fields = fields[1:]
			if len(fields) == 0 {
				continue
			}
		}

		// |1|salt|hash
		if strings.HasPrefix(fields[0], "|") {
			continue
		}

		for _, h := range strings.Split(fields[0], ",") {
			h = unbracketHost(strings.TrimSpace(h))
			if h == "" || looksLikeIPAddress(h) || strings.ContainsAny(h, "*?") {
				continue
			}
			hosts[h] = true
		}
	}
}

// unbracketHost turns "[host]:2222" into "host".
func unbracketHost(h string) string {
	if !strings.HasPrefix(h, "[") {
		return h
	}
	if end := strings.Index(h, "]"); end > 1 {
		return h[1:end]
	}
	return h
}

// looksLikeIPAddress returns true if the string looks like an IPv4 or IPv6 address.
func looksLikeIPAddress(s string) bool {
	isIPv4 := strings.Contains(s, ".")
	for _, c := range s {
		if !((c >= '0' && c <= '9') || c == '.') {
			isIPv4 = false
			break
		}
	}
	if isIPv4 {
		return true
	}

	if !strings.Contains(s, ":") {
		return false
	}
	for _, c := range s {
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHex && c != ':' && c != '.' {
			return false
		}
	}
	return true
}
