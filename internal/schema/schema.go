// Package schema declares the relational shape of the starter as plain data.
// The descriptors carry no database handle, so the declared shape can be
// inspected and tested offline; Migrate interprets them against a live
// connection.
package schema

import (
	"fmt"
	"strings"
)

type Column struct {
	Name    string
	Type    string
	NotNull bool
	Default string
	Unique  bool
}

type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  string
}

type Check struct {
	Name string
	Expr string
}

type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

type Table struct {
	Name        string
	Columns     []Column
	Checks      []Check
	ForeignKeys []ForeignKey
	Indexes     []Index
}

// idColumn is the shared server-generated primary key fragment.
func idColumn() Column {
	return Column{Name: "id", Type: "uuid", NotNull: true, Default: "gen_random_uuid()"}
}

// createdColumn is the shared insert-time timestamp fragment. The value is
// set once by the server default and never touched again.
func createdColumn() Column {
	return Column{Name: "created_at", Type: "timestamptz", NotNull: true, Default: "now()"}
}

// timestampColumns adds updated_at on top of created_at. updated_at is
// refreshed by the application layer on every update, not by the engine.
func timestampColumns() []Column {
	return []Column{
		createdColumn(),
		{Name: "updated_at", Type: "timestamptz", NotNull: true, Default: "now()"},
	}
}

var Users = Table{
	Name: "users",
	Columns: append([]Column{
		idColumn(),
		{Name: "email", Type: "varchar(255)", NotNull: true, Unique: true},
		{Name: "hashed_password", Type: "text"},
		{Name: "email_verified", Type: "boolean", NotNull: true, Default: "false"},
		{Name: "role", Type: "text", NotNull: true, Default: "'doctor'"},
	}, timestampColumns()...),
	Checks: []Check{
		{Name: "users_role_check", Expr: "role IN ('doctor', 'patient', 'admin')"},
	},
	Indexes: []Index{
		// Redundant with the column-level unique constraint, kept as a
		// named index consumed by lookup plans.
		{Name: "users_email_idx", Columns: []string{"email"}, Unique: true},
	},
}

var OAuthAccounts = Table{
	Name: "oauth_accounts",
	Columns: []Column{
		idColumn(),
		{Name: "user_id", Type: "uuid", NotNull: true},
		{Name: "provider", Type: "text", NotNull: true},
		{Name: "provider_user_id", Type: "text", NotNull: true, Unique: true},
		{Name: "access_token", Type: "text"},
		{Name: "refresh_token", Type: "text"},
		{Name: "expires_at", Type: "bigint"},
		createdColumn(),
	},
	ForeignKeys: []ForeignKey{
		{Column: "user_id", RefTable: "users", RefColumn: "id", OnDelete: "CASCADE"},
	},
}

var RefreshTokens = Table{
	Name: "refresh_tokens",
	Columns: []Column{
		idColumn(),
		{Name: "user_id", Type: "uuid", NotNull: true},
		{Name: "hashed_token", Type: "text", NotNull: true},
		{Name: "expires_at", Type: "timestamptz", NotNull: true},
		{Name: "revoked", Type: "boolean", NotNull: true, Default: "false"},
		{Name: "replaced_by", Type: "uuid"},
		createdColumn(),
	},
	ForeignKeys: []ForeignKey{
		{Column: "user_id", RefTable: "users", RefColumn: "id", OnDelete: "CASCADE"},
		{Column: "replaced_by", RefTable: "refresh_tokens", RefColumn: "id"},
	},
}

// Tables is the aggregate consumed by Migrate and by anything that needs to
// enumerate the declared shape. Adding a table means declaring it above and
// appending it here.
var Tables = []Table{Users, OAuthAccounts, RefreshTokens}

func (c Column) ddl() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteString(" ")
	b.WriteString(c.Type)
	if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	if c.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.Default)
	}
	if c.Unique {
		b.WriteString(" UNIQUE")
	}
	return b.String()
}

// CreateDDL renders the full CREATE TABLE statement for the descriptor.
// Pure function of the declared shape.
func (t Table) CreateDDL() string {
	parts := make([]string, 0, len(t.Columns)+len(t.Checks)+len(t.ForeignKeys)+1)

	for _, c := range t.Columns {
		col := c.ddl()
		if c.Name == "id" {
			col += " PRIMARY KEY"
		}
		parts = append(parts, col)
	}

	for _, ch := range t.Checks {
		parts = append(parts, fmt.Sprintf("CONSTRAINT %s CHECK (%s)", ch.Name, ch.Expr))
	}

	for _, fk := range t.ForeignKeys {
		ref := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)", fk.Column, fk.RefTable, fk.RefColumn)
		if fk.OnDelete != "" {
			ref += " ON DELETE " + fk.OnDelete
		}
		parts = append(parts, ref)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.Name, strings.Join(parts, ",\n\t"))
}

// IndexDDL renders the standalone index statements for the descriptor.
func (t Table) IndexDDL() []string {
	stmts := make([]string, 0, len(t.Indexes))
	for _, idx := range t.Indexes {
		unique := ""
		if idx.Unique {
			unique = "UNIQUE "
		}
		stmts = append(stmts, fmt.Sprintf(
			"CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
			unique, idx.Name, t.Name, strings.Join(idx.Columns, ", "),
		))
	}
	return stmts
}

// AddColumnDDL renders the additive statement used when a declared column is
// missing from the live table.
func (t Table) AddColumnDDL(c Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s", t.Name, c.ddl())
}

// Column returns the declared column with the given name, if any.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}
