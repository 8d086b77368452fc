/*

This file manages the persistent global session counter for the agent.
The session counter is stored in the database to ensure continuity across restarts.

*/

package state

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ensureSessionCounterTable creates the session_counter table if it doesn't exist
func ensureSessionCounterTable() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS session_counter (
			id INTEGER PRIMARY KEY DEFAULT 1,
			current_session INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT single_row_check CHECK (id = 1)
		);

		-- Insert initial row if it doesn't exist
		INSERT INTO session_counter (id, current_session)
		VALUES (1, 0)
		ON CONFLICT (id) DO NOTHING;
	`

	_, err := DB.Exec(createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create session_counter table: %w", err)
	}

	log.Debug().Msg("Ensured session_counter table exists")
	return nil
}

// GetCurrentSessionNumber retrieves the current session number from the database
func GetCurrentSessionNumber() (int, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	if err := ensureSessionCounterTable(); err != nil {
		return 0, err
	}

	query := `SELECT current_session FROM session_counter WHERE id = 1;`

	var currentSession int
	row := DB.QueryRow(query)
	err := row.Scan(&currentSession)

	if err != nil {
		if err == sql.ErrNoRows {
			// This should not happen due to the INSERT in ensureSessionCounterTable
			log.Warn().Msg("No session counter row found, initializing to 0")
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get current session number: %w", err)
	}

	return currentSession, nil
}

// NextSessionNumber increments the session counter and returns the new value
func NextSessionNumber() (int, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	if err := ensureSessionCounterTable(); err != nil {
		return 0, err
	}

	updateQuery := `
		UPDATE session_counter
		SET current_session = current_session + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
		RETURNING current_session;`

	var newSession int
	row := DB.QueryRow(updateQuery)
	err := row.Scan(&newSession)

	if err != nil {
		return 0, fmt.Errorf("failed to increment session number: %w", err)
	}

	log.Info().Int("newSession", newSession).Msg("Incremented session counter")
	return newSession, nil
}
