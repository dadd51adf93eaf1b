// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package dbopen

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

var ErrDatabaseNotConfigured = errors.New("database connection configuration is unavailable")

// getDatabaseURLFromEnv assembles a PostgreSQL connection URL from
// PREFIX_HOST, PREFIX_PORT, PREFIX_USER, PREFIX_PASSWORD, PREFIX_DBNAME,
// and PREFIX_SSLMODE. A trailing underscore on the prefix is optional.
// PREFIX_URL, when set, wins over the individual parts. HOST and DBNAME
// are required; PORT defaults to 5432.
func getDatabaseURLFromEnv(prefix string) (string, error) {
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}

	if full := os.Getenv(prefix + "URL"); full != "" {
		return full, nil
	}

	var missing []string
	for _, key := range []string{"HOST", "DBNAME"} {
		if os.Getenv(prefix+key) == "" {
			missing = append(missing, prefix+key)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	port := os.Getenv(prefix + "PORT")
	if port == "" {
		port = "5432"
	}

	u := &url.URL{
		Scheme: "postgresql",
		Host:   os.Getenv(prefix+"HOST") + ":" + port,
		Path:   os.Getenv(prefix + "DBNAME"),
	}

	if user := os.Getenv(prefix + "USER"); user != "" {
		if pass := os.Getenv(prefix + "PASSWORD"); pass != "" {
			u.User = url.UserPassword(user, pass)
		} else {
			u.User = url.User(user)
		}
	}

	if sslmode := os.Getenv(prefix + "SSLMODE"); sslmode != "" {
		q := u.Query()
		q.Set("sslmode", sslmode)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
