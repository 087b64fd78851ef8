package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create jobs table
			CREATE TABLE jobs (
				id UUID PRIMARY KEY,
				task_type VARCHAR(50) NOT NULL,
				model_id VARCHAR(255) NOT NULL,
				template_id VARCHAR(255),
				target VARCHAR(20),
				status VARCHAR(50) NOT NULL,
				ticket_id VARCHAR(255),
				outputs JSONB,
				error_message TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_jobs_status ON jobs(status);
			CREATE INDEX idx_jobs_created_at ON jobs(created_at);
			CREATE INDEX idx_jobs_updated_at ON jobs(updated_at);
			CREATE INDEX idx_jobs_ticket_id ON jobs(ticket_id);
		`,
	}
}
