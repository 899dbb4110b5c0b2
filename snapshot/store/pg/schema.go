package pg

// schemaDDL defines the three snapshot tables. Pages and connections are
// foreign-key scoped to their owning build; the (wiki_id, build_id) unique
// constraint is the upsert conflict target.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS builds (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	build_timestamp TIMESTAMPTZ NOT NULL UNIQUE,
	status TEXT NOT NULL DEFAULT 'building',
	started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at TIMESTAMPTZ,
	pages_processed INTEGER NOT NULL DEFAULT 0,
	connections_created INTEGER NOT NULL DEFAULT 0,
	error_message TEXT
);

CREATE INDEX IF NOT EXISTS builds_status_idx ON builds (status);
CREATE INDEX IF NOT EXISTS builds_timestamp_idx ON builds (build_timestamp);

CREATE TABLE IF NOT EXISTS pages (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	wiki_id BIGINT NOT NULL,
	title TEXT NOT NULL,
	url TEXT NOT NULL,
	html TEXT NOT NULL,
	text_content TEXT NOT NULL DEFAULT '',
	links TEXT[] NOT NULL DEFAULT '{}',
	build_id UUID NOT NULL REFERENCES builds (id),
	UNIQUE (wiki_id, build_id)
);

CREATE INDEX IF NOT EXISTS pages_wiki_id_idx ON pages (wiki_id);
CREATE INDEX IF NOT EXISTS pages_url_idx ON pages (url, build_id);

CREATE TABLE IF NOT EXISTS connections (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	origin UUID NOT NULL REFERENCES pages (id),
	target UUID NOT NULL REFERENCES pages (id),
	build_id UUID NOT NULL REFERENCES builds (id)
);

CREATE INDEX IF NOT EXISTS connections_origin_idx ON connections (origin);
CREATE INDEX IF NOT EXISTS connections_target_idx ON connections (target);
`
