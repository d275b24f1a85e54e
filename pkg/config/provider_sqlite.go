package config

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/chrissnell/fracgrad/pkg/migrate"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sqlx.DB
	dbPath string
}

// controllerRow mirrors one row of the controllers table
type controllerRow struct {
	Type       string         `db:"type"`
	ListenAddr sql.NullString `db:"listen_addr"`
	Port       sql.NullInt64  `db:"port"`
	Cert       sql.NullString `db:"cert"`
	Key        sql.NullString `db:"key_file"`
	AuthToken  sql.NullString `db:"auth_token"`
	Multicore  bool           `db:"multicore"`
}

// NewSQLiteProvider opens the database at dbPath and brings its schema up to
// date
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if err := Migrate(db.DB, nil); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// MigrationProvider returns the embedded configuration schema migrations
func MigrationProvider() *migrate.FSProvider {
	return migrate.NewFSProvider(migrationFS, "migrations", "schema_migrations")
}

// Migrate applies the embedded configuration schema migrations
func Migrate(db *sql.DB, logger *zap.SugaredLogger) error {
	if err := migrate.NewMigrator(db, MigrationProvider(), logger).MigrateUp(); err != nil {
		return fmt.Errorf("failed to migrate configuration schema: %w", err)
	}
	return nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	cfg := &ConfigData{}

	controllers, err := s.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}
	cfg.Controllers = controllers

	calc, err := s.GetCalculation()
	if err != nil {
		return nil, fmt.Errorf("failed to load calculation settings: %w", err)
	}
	cfg.Calculation = *calc

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetControllers returns controller configurations from the database
func (s *SQLiteProvider) GetControllers() ([]ControllerData, error) {
	var rows []controllerRow
	err := s.db.Select(&rows, `
		SELECT type, listen_addr, port, cert, key_file, auth_token, multicore
		FROM controllers
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query controllers: %w", err)
	}

	controllers := make([]ControllerData, 0, len(rows))
	for _, row := range rows {
		controllers = append(controllers, row.toControllerData())
	}
	return controllers, nil
}

// GetCalculation returns the calculation settings from the database
func (s *SQLiteProvider) GetCalculation() (*CalculationData, error) {
	var calc CalculationData
	err := s.db.QueryRowx(`
		SELECT acceptance_threshold_pct, max_samples
		FROM calculation_settings
		WHERE id = 1
	`).Scan(&calc.AcceptanceThresholdPct, &calc.MaxSamples)
	if err != nil {
		return nil, fmt.Errorf("failed to query calculation settings: %w", err)
	}
	return &calc, nil
}

// SaveConfig replaces the stored configuration with cfg
func (s *SQLiteProvider) SaveConfig(cfg *ConfigData) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM controllers"); err != nil {
		return fmt.Errorf("failed to clear controllers: %w", err)
	}

	for _, c := range cfg.Controllers {
		if _, err := tx.NamedExec(insertControllerSQL, newControllerRow(c)); err != nil {
			return fmt.Errorf("failed to insert %s controller: %w", c.Type, err)
		}
	}

	calc := cfg.Calculation.WithDefaults()
	_, err = tx.Exec(`
		UPDATE calculation_settings
		SET acceptance_threshold_pct = ?, max_samples = ?
		WHERE id = 1
	`, calc.AcceptanceThresholdPct, calc.MaxSamples)
	if err != nil {
		return fmt.Errorf("failed to update calculation settings: %w", err)
	}

	return tx.Commit()
}

// UpdateController inserts or replaces the controller of the given type
func (s *SQLiteProvider) UpdateController(controllerType string, data *ControllerData) error {
	row := newControllerRow(*data)
	row.Type = controllerType

	_, err := s.db.NamedExec(`
		INSERT INTO controllers (type, listen_addr, port, cert, key_file, auth_token, multicore)
		VALUES (:type, :listen_addr, :port, :cert, :key_file, :auth_token, :multicore)
		ON CONFLICT(type) DO UPDATE SET
			listen_addr = excluded.listen_addr,
			port        = excluded.port,
			cert        = excluded.cert,
			key_file    = excluded.key_file,
			auth_token  = excluded.auth_token,
			multicore   = excluded.multicore
	`, row)
	if err != nil {
		return fmt.Errorf("failed to update %s controller: %w", controllerType, err)
	}
	return nil
}

// IsReadOnly returns false for SQLite provider
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}

const insertControllerSQL = `
	INSERT INTO controllers (type, listen_addr, port, cert, key_file, auth_token, multicore)
	VALUES (:type, :listen_addr, :port, :cert, :key_file, :auth_token, :multicore)
`

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(i int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(i), Valid: i != 0}
}

func newControllerRow(c ControllerData) controllerRow {
	row := controllerRow{Type: c.Type}

	if l := c.Listener(); l != nil {
		row.ListenAddr = nullString(l.ListenAddr)
		row.Port = nullInt(l.Port)
		row.Cert = nullString(l.Cert)
		row.Key = nullString(l.Key)
	}
	if c.ManagementAPI != nil {
		row.AuthToken = nullString(c.ManagementAPI.AuthToken)
	}
	if c.TCP != nil {
		row.ListenAddr = nullString(c.TCP.ListenAddr)
		row.Port = nullInt(c.TCP.Port)
		row.Multicore = c.TCP.Multicore
	}
	return row
}

func (r controllerRow) toControllerData() ControllerData {
	listener := ListenerData{
		ListenAddr: r.ListenAddr.String,
		Port:       int(r.Port.Int64),
		Cert:       r.Cert.String,
		Key:        r.Key.String,
	}

	c := ControllerData{Type: r.Type}
	switch r.Type {
	case "rest":
		c.RESTServer = &RESTServerData{ListenerData: listener}
	case "grpc":
		c.GRPC = &GRPCData{ListenerData: listener}
	case "management":
		c.ManagementAPI = &ManagementAPIData{ListenerData: listener, AuthToken: r.AuthToken.String}
	case "tcp":
		c.TCP = &TCPData{ListenAddr: listener.ListenAddr, Port: listener.Port, Multicore: r.Multicore}
	}
	return c
}
