package dialect

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/syssam/veloxmysql"
)

// Server families.
const (
	MySQL   = "mysql"
	MariaDB = "mariadb"
)

// DefaultServerVersion is used when no server version is configured.
const DefaultServerVersion = "8.0.36-mysql"

var versionRe = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

// ServerVersion identifies a server family and its version.
type ServerVersion struct {
	// Type is MySQL or MariaDB.
	Type string
	// Version is the canonical semantic version, e.g. "v8.0.36".
	Version string
}

// ParseServerVersion parses a version string as returned by SELECT VERSION()
// or written in configuration, e.g. "8.0.36", "8.0.36-mysql",
// "10.11.6-MariaDB" or "5.5.5-10.11.6-MariaDB-1:10.11.6+maria~ubu2204".
func ParseServerVersion(s string) (ServerVersion, error) {
	raw := strings.TrimSpace(s)
	typ := MySQL
	if strings.Contains(strings.ToLower(raw), MariaDB) {
		typ = MariaDB
		// MariaDB prefixes its version for old replication clients.
		raw = strings.TrimPrefix(raw, "5.5.5-")
	}
	m := versionRe.FindStringSubmatch(raw)
	if m == nil {
		return ServerVersion{}, veloxmysql.NewConfigError("ServerVersion", s, "unrecognized server version")
	}
	v := fmt.Sprintf("v%s.%s.%s", trimZeros(m[1]), trimZeros(m[2]), trimZeros(m[3]))
	if !semver.IsValid(v) {
		return ServerVersion{}, veloxmysql.NewConfigError("ServerVersion", s, "invalid semantic version")
	}
	return ServerVersion{Type: typ, Version: v}, nil
}

// MustParseServerVersion is like ParseServerVersion but panics on error.
func MustParseServerVersion(s string) ServerVersion {
	sv, err := ParseServerVersion(s)
	if err != nil {
		panic(err)
	}
	return sv
}

func trimZeros(s string) string {
	if t := strings.TrimLeft(s, "0"); t != "" {
		return t
	}
	return "0"
}

// String returns the version in the "8.0.36-mysql" form.
func (v ServerVersion) String() string {
	return strings.TrimPrefix(v.Version, "v") + "-" + v.Type
}

// IsMySQL reports whether the server is a MySQL server.
func (v ServerVersion) IsMySQL() bool { return v.Type == MySQL }

// IsMariaDB reports whether the server is a MariaDB server.
func (v ServerVersion) IsMariaDB() bool { return v.Type == MariaDB }

// AtLeast reports whether the server version is greater than or equal to the
// given "major.minor.patch" version.
func (v ServerVersion) AtLeast(version string) bool {
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return semver.Compare(v.Version, version) >= 0
}

// Supports holds the capability matrix of a server version. Each field
// decides whether a dialect feature is used or a workaround is applied.
type Supports struct {
	// JSONTable reports whether JSON_TABLE() is available.
	JSONTable bool
	// JSONTableParameterSource reports whether a bound parameter can be used
	// as the source of JSON_TABLE() without crashing the engine.
	JSONTableParameterSource bool
	// JSONValue reports whether JSON_VALUE() is available.
	JSONValue bool
	// LateralJoin reports whether LATERAL derived tables are supported.
	LateralJoin bool
	// LimitWithinInSubquery reports whether LIMIT is allowed in subqueries
	// used with IN/ALL/ANY/SOME.
	LimitWithinInSubquery bool
	// Limit0Offset0ExistsWorkaround reports whether LIMIT 0 OFFSET 0 must be
	// collapsed to avoid wrong results in EXISTS subqueries.
	Limit0Offset0ExistsWorkaround bool
	// ExceptIntersect reports whether EXCEPT and INTERSECT are available.
	ExceptIntersect bool
}

// Supports returns the capability matrix for the server version.
func (v ServerVersion) Supports() Supports {
	if v.IsMariaDB() {
		return Supports{
			JSONTable:                v.AtLeast("10.6.0"),
			JSONTableParameterSource: v.AtLeast("10.6.0"),
			JSONValue:                v.AtLeast("10.2.3"),
			ExceptIntersect:          v.AtLeast("10.3.0"),
		}
	}
	return Supports{
		JSONTable:                     v.AtLeast("8.0.4"),
		JSONValue:                     v.AtLeast("8.0.21"),
		LateralJoin:                   v.AtLeast("8.0.14"),
		Limit0Offset0ExistsWorkaround: v.AtLeast("8.0.22"),
		ExceptIntersect:               v.AtLeast("8.0.31"),
	}
}
