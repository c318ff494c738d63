// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/momeni/clientstx/pkg/adapter/db/postgres"
	"github.com/momeni/clientstx/pkg/adapter/db/postgres/schemarp"
	"github.com/momeni/clientstx/pkg/adapter/hash/scram"
	"github.com/momeni/clientstx/pkg/core/log"
	"github.com/momeni/clientstx/pkg/core/repo"
	scrami "github.com/momeni/clientstx/pkg/core/scram"
)

// These constants name the passwords files in the Database.PassDir.
// New passwords are written to the newPassFile before being changed in
// the database, and it replaces the passFile when that change commits.
const (
	passFile    = ".pgpass"
	newPassFile = ".pgpass.new"
)

// Database contains the database related configuration settings.
type Database struct {
	Host    string // domain name or IP address of the DBMS server
	Port    int    // port number of the DBMS server
	Name    string // database name
	PassDir string `yaml:"pass-dir"` // path of the passwords dir

	// RoleSuffix specifies a possibly empty suffix for the database
	// role names. Normally, repo.AdminRole and repo.NormalRole roles
	// are used. Tests which share a database cluster use unique
	// suffixes in order to create non-colliding roles.
	RoleSuffix repo.Role `yaml:"role-suffix,omitempty"`

	// AuthMethod specifies how passwords should be hashed before being
	// stored in the database. The scram-sha-1 and scram-sha-256 (which
	// is the default) methods are supported.
	AuthMethod string `yaml:"auth-method,omitempty"`

	hasher scrami.Hasher
}

// ValidateAndNormalize validates the database settings and fills the
// defaults. It also instantiates the passwords hasher, so it has to
// be called before NewSchemaRepo.
func (d *Database) ValidateAndNormalize() error {
	switch {
	case d.Host == "":
		return errors.New("host is empty")
	case d.Port <= 0 || d.Port > 65535:
		return fmt.Errorf("port (%d) is out of range", d.Port)
	case d.Name == "":
		return errors.New("database name is empty")
	case d.PassDir == "":
		return errors.New("pass-dir is empty")
	}
	switch am := strings.ToLower(d.AuthMethod); am {
	case "scram-sha-1":
		d.hasher = scram.SHA1()
	case "":
		d.AuthMethod = "scram-sha-256"
		fallthrough
	case "scram-sha-256":
		d.hasher = scram.SHA256()
	default:
		return fmt.Errorf(
			"unsupported database authentication method: %q", am,
		)
	}
	return nil
}

// ConnectionPool creates a database connection pool for the r role.
// The .pgpass file in the PassDir folder is checked first. If it does
// not work, passwords might have been updated during a previous
// incomplete RenewPasswords operation. So the .pgpass.new file is
// checked too and if it works, it replaces the .pgpass file.
func (d Database) ConnectionPool(
	ctx context.Context, r repo.Role,
) (repo.Pool, error) {
	return d.Pool(ctx, r)
}

// SessionPool creates a connection pool for the normal role, which may
// also pin connections for manually managed sessions.
func (d Database) SessionPool(ctx context.Context) (*postgres.Pool, error) {
	return d.Pool(ctx, repo.NormalRole)
}

// Pool is similar to ConnectionPool but returns the concrete type.
func (d Database) Pool(
	ctx context.Context, r repo.Role,
) (*postgres.Pool, error) {
	path := filepath.Join(d.PassDir, passFile)
	u, err := d.ConnectionURL(r, path)
	if err == nil {
		p, err2 := postgres.NewPool(ctx, u)
		if err2 == nil {
			return p, nil
		}
		err = err2
	}
	newPath := filepath.Join(d.PassDir, newPassFile)
	log.Warn(
		ctx, "trying the renewed passwords file",
		log.Err("err", err),
		slog.String("path", path), slog.String("new_path", newPath),
	)
	u, err = d.ConnectionURL(r, newPath)
	if err != nil {
		return nil, fmt.Errorf("using %q pass-file: %w", newPath, err)
	}
	p, err := postgres.NewPool(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("can use neither pass-file: %w", err)
	}
	if err = os.Rename(newPath, path); err != nil {
		p.Close()
		return nil, fmt.Errorf("os.Rename: %w", err)
	}
	return p, nil
}

// ConnectionURL returns the postgresql URL for connecting to the
// database with the r role (suffixed by RoleSuffix). The password is
// read from the path file which may contain empty or `#`-commented
// lines in addition to the pgpass-formatted lines:
//
//	host:port:dbname:role:password
func (d Database) ConnectionURL(
	r repo.Role, path string,
) (string, error) {
	passLines, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading pass-file: %w", err)
	}
	r = r + d.RoleSuffix
	prfx := fmt.Sprintf("%s:%d:%s:%s:", d.Host, d.Port, d.Name, r)
	var pass string
	for _, line := range strings.Split(string(passLines), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || line[0] == '#' {
			continue
		}
		if strings.HasPrefix(line, prfx) {
			pass = line[len(prfx):]
			break
		}
	}
	if pass == "" {
		return "", fmt.Errorf("no matching password line for %q", r)
	}
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(string(r), pass),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	return u.String(), nil
}

// SchemaName returns the schema which holds the clients tables.
func (d Database) SchemaName() string {
	return postgres.SchemaName
}

// NewSchemaRepo instantiates a Schema repository which suffixes role
// names by RoleSuffix and hashes passwords by the AuthMethod.
func (d Database) NewSchemaRepo() repo.Schema {
	return schemarp.New(d.RoleSuffix, d.hasher)
}

// SchemaInitializer wraps tx in order to create the clients tables.
func (d Database) SchemaInitializer(tx repo.Tx) repo.SchemaInitializer {
	return schemarp.NewInitializer(tx)
}

// RenewPasswords generates new random passwords for the given roles,
// writes them into the .pgpass.new file, and calls change in order to
// update them in the database. The returned finalizer moves the
// .pgpass.new file over the .pgpass file and must be called after the
// transaction of change commits.
func (d Database) RenewPasswords(
	ctx context.Context,
	change func(
		ctx context.Context, roles []repo.Role, passwords []string,
	) error,
	roles ...repo.Role,
) (finalizer func() error, err error) {
	passwords := make([]string, len(roles))
	lines := make([]string, len(roles))
	b := make([]byte, 16) // 128 bits
	prfx := fmt.Sprintf("%s:%d:%s", d.Host, d.Port, d.Name)
	for i, r := range roles {
		if _, err = rand.Read(b); err != nil {
			return nil, fmt.Errorf("rand.Read for i=%d: %w", i, err)
		}
		passwords[i] = base64.RawStdEncoding.EncodeToString(b)
		lines[i] = fmt.Sprintf(
			"%s:%s:%s\n", prfx, r+d.RoleSuffix, passwords[i],
		)
	}
	orgPath := filepath.Join(d.PassDir, passFile)
	newPath := filepath.Join(d.PassDir, newPassFile)
	err = os.WriteFile(newPath, []byte(strings.Join(lines, "")), 0o600)
	if err != nil {
		return nil, fmt.Errorf("writing %q file: %w", newPath, err)
	}
	if err = change(ctx, roles, passwords); err != nil {
		return nil, fmt.Errorf("passwords change callback: %w", err)
	}
	return func() error {
		return os.Rename(newPath, orgPath)
	}, nil
}
