package sqldb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-compendium/internal/errors"
)

type SQLDBTestSuite struct {
	suite.Suite
	ctx context.Context
	db  *DB
}

func TestSQLDBSuite(t *testing.T) {
	suite.Run(t, new(SQLDBTestSuite))
}

func (s *SQLDBTestSuite) SetupTest() {
	s.ctx = context.Background()
	db, err := Open(s.ctx, &Config{
		Dialect: DialectSQLite,
		DSN:     filepath.Join(s.T().TempDir(), "compendium.db"),
	})
	s.Require().NoError(err)
	s.Require().NoError(Migrate(s.ctx, db))
	s.db = db
}

func (s *SQLDBTestSuite) TearDownTest() {
	s.Require().NoError(s.db.Close())
}

func (s *SQLDBTestSuite) TestConfigValidate() {
	testCases := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{name: "sqlite", cfg: &Config{Dialect: DialectSQLite, DSN: "x.db"}},
		{name: "postgres", cfg: &Config{Dialect: DialectPostgres, DSN: "postgres://localhost/compendium"}},
		{name: "nil", cfg: nil, wantErr: true},
		{name: "unknown dialect", cfg: &Config{Dialect: "mysql", DSN: "x"}, wantErr: true},
		{name: "missing dsn", cfg: &Config{Dialect: DialectSQLite}, wantErr: true},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := tc.cfg.Validate()
			if tc.wantErr {
				s.True(errors.IsInvalidArgument(err))
				return
			}
			s.NoError(err)
		})
	}
}

func (s *SQLDBTestSuite) TestRebind() {
	q := "INSERT INTO spells (id, name) VALUES (?, ?)"
	s.Equal("INSERT INTO spells (id, name) VALUES ($1, $2)", rebind(DialectPostgres, q))
	s.Equal(q, rebind(DialectSQLite, q))
}

func (s *SQLDBTestSuite) TestSQLiteDSN() {
	s.Equal("file:a.db?"+sqliteParams, sqliteDSN("a.db"))
	s.Equal("file:a.db?cache=shared&"+sqliteParams, sqliteDSN("file:a.db?cache=shared"))
}

func (s *SQLDBTestSuite) TestMigrateIsRepeatable() {
	s.NoError(Migrate(s.ctx, s.db))
}

func (s *SQLDBTestSuite) TestWithTxRollsBackOnError() {
	boom := errors.Internal("boom")
	err := s.db.WithTx(s.ctx, func(tx *Tx) error {
		_, err := tx.Exec(s.ctx, "INSERT INTO item_properties (item_id, position, code) VALUES (?, ?, ?)", "item_1", 0, "F")
		s.Require().NoError(err)
		return boom
	})
	s.ErrorIs(err, boom)

	var n int
	s.Require().NoError(s.db.QueryRow(s.ctx, "SELECT COUNT(*) FROM item_properties").Scan(&n))
	s.Equal(0, n)
}

func (s *SQLDBTestSuite) TestWithTxCommits() {
	err := s.db.WithTx(s.ctx, func(tx *Tx) error {
		_, err := tx.Exec(s.ctx, "INSERT INTO item_properties (item_id, position, code) VALUES (?, ?, ?)", "item_1", 0, "F")
		return err
	})
	s.Require().NoError(err)

	var code string
	s.Require().NoError(s.db.QueryRow(s.ctx, "SELECT code FROM item_properties WHERE item_id = ?", "item_1").Scan(&code))
	s.Equal("F", code)
}
