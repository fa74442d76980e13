package postgresql

// migrations returns the schema migrations for the workflow store, keyed by
// version. Tasks and results travel as JSONB documents with the workflow row.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL DEFAULT 'not_started',
				config JSONB NOT NULL DEFAULT '{}',
				tasks JSONB NOT NULL DEFAULT '[]',
				result JSONB,
				current_iteration INTEGER NOT NULL DEFAULT 0,
				metadata JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				started_at TIMESTAMP WITH TIME ZONE,
				completed_at TIMESTAMP WITH TIME ZONE,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_workflows_status ON workflows(status) WHERE deleted_at IS NULL;
			CREATE INDEX IF NOT EXISTS idx_workflows_created_at ON workflows(created_at DESC);
		`,
	}
}
