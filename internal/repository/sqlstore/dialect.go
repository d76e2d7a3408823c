package sqlstore

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Dialect captures what differs between the supported SQL engines.
type Dialect struct {
	Name       string
	schema     []string
	lockSuffix string
	isUnique   func(error) bool
}

// MySQL uses InnoDB row locks taken with SELECT ... FOR UPDATE.
var MySQL = Dialect{
	Name:       "mysql",
	lockSuffix: " FOR UPDATE",
	isUnique: func(err error) bool {
		var myErr *mysql.MySQLError
		return errors.As(err, &myErr) && myErr.Number == 1062
	},
	schema: []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(120) NOT NULL,
			created_at BIGINT NOT NULL,
			INDEX idx_sessions_created_at (created_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS players (
			id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			session_id BIGINT NOT NULL,
			name VARCHAR(60) NOT NULL,
			color VARCHAR(20) NOT NULL,
			balance BIGINT NOT NULL DEFAULT 0,
			UNIQUE KEY uq_players_session_name (session_id, name),
			UNIQUE KEY uq_players_session_color (session_id, color),
			CONSTRAINT fk_players_session FOREIGN KEY (session_id) REFERENCES sessions(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS color_groups (
			name VARCHAR(40) NOT NULL PRIMARY KEY,
			total INT NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS properties (
			id BIGINT NOT NULL PRIMARY KEY,
			name VARCHAR(120) NOT NULL,
			group_name VARCHAR(40) NOT NULL,
			prop_type VARCHAR(10) NOT NULL,
			cost BIGINT NOT NULL,
			rent_base BIGINT NOT NULL,
			rent_1 BIGINT NOT NULL,
			rent_2 BIGINT NOT NULL,
			rent_3 BIGINT NOT NULL,
			rent_4 BIGINT NOT NULL,
			rent_hotel BIGINT NOT NULL,
			house_cost BIGINT NOT NULL,
			mortgage BIGINT NOT NULL,
			INDEX idx_properties_group (group_name)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS ownerships (
			id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			session_id BIGINT NOT NULL,
			property_id BIGINT NOT NULL,
			player_id BIGINT NULL,
			houses INT NOT NULL DEFAULT 0,
			mortgaged BOOLEAN NOT NULL DEFAULT FALSE,
			UNIQUE KEY uq_ownerships_session_property (session_id, property_id),
			INDEX idx_ownerships_player (player_id),
			CONSTRAINT fk_ownerships_session FOREIGN KEY (session_id) REFERENCES sessions(id),
			CONSTRAINT fk_ownerships_property FOREIGN KEY (property_id) REFERENCES properties(id),
			CONSTRAINT fk_ownerships_player FOREIGN KEY (player_id) REFERENCES players(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS history (
			id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			session_id BIGINT NOT NULL,
			recorded_at BIGINT NOT NULL,
			kind VARCHAR(32) NOT NULL,
			detail VARCHAR(500) NOT NULL,
			INDEX idx_history_session (session_id, id),
			CONSTRAINT fk_history_session FOREIGN KEY (session_id) REFERENCES sessions(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
}

// SQLite relies on BEGIN IMMEDIATE (the _txlock=immediate DSN parameter)
// to serialize writers, so reads need no lock clause.
var SQLite = Dialect{
	Name: "sqlite",
	isUnique: func(err error) bool {
		var sqliteErr *msqlite.Error
		if errors.As(err, &sqliteErr) {
			switch sqliteErr.Code() {
			case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
				return true
			}
		}
		return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
	},
	schema: []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at)`,
		`CREATE TABLE IF NOT EXISTS players (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL REFERENCES sessions(id),
			name TEXT NOT NULL,
			color TEXT NOT NULL,
			balance INTEGER NOT NULL DEFAULT 0,
			UNIQUE (session_id, name),
			UNIQUE (session_id, color)
		)`,
		`CREATE TABLE IF NOT EXISTS color_groups (
			name TEXT PRIMARY KEY,
			total INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS properties (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			group_name TEXT NOT NULL,
			prop_type TEXT NOT NULL,
			cost INTEGER NOT NULL,
			rent_base INTEGER NOT NULL,
			rent_1 INTEGER NOT NULL,
			rent_2 INTEGER NOT NULL,
			rent_3 INTEGER NOT NULL,
			rent_4 INTEGER NOT NULL,
			rent_hotel INTEGER NOT NULL,
			house_cost INTEGER NOT NULL,
			mortgage INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_group ON properties(group_name)`,
		`CREATE TABLE IF NOT EXISTS ownerships (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL REFERENCES sessions(id),
			property_id INTEGER NOT NULL REFERENCES properties(id),
			player_id INTEGER NULL REFERENCES players(id),
			houses INTEGER NOT NULL DEFAULT 0,
			mortgaged INTEGER NOT NULL DEFAULT 0,
			UNIQUE (session_id, property_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ownerships_player ON ownerships(player_id)`,
		`CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL REFERENCES sessions(id),
			recorded_at INTEGER NOT NULL,
			kind TEXT NOT NULL,
			detail TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_session ON history(session_id, id)`,
	},
}

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, bool) {
	switch name {
	case MySQL.Name:
		return MySQL, true
	case SQLite.Name:
		return SQLite, true
	}
	return Dialect{}, false
}
