// Package config loads seeder configuration from environment variables and
// an optional YAML plan file.
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Environment Variables
//
//	DB_HOST, DB_PORT        - SurrealDB address (default localhost:8000)
//	DB_NAMESPACE            - namespace (default finance)
//	DB_DATABASE             - database (default e2e)
//	DB_USER, DB_PASSWORD    - root credentials (default root/root)
//	DB_CONNECT_TIMEOUT      - connect timeout (default 10s)
//	SEED_STORE              - surrealdb or memory (default surrealdb)
//	SEED_VALUE              - random seed (default 17)
//	SEED_PASSWORD           - password of every seeded login (default patr1ot)
//	SEED_PLAN               - path to a YAML plan file
//	SEED_RESET              - delete previously seeded records first (default true)
//	LOG_LEVEL               - debug, info, warn or error (default info)
//
// A plan file's seed wins over SEED_VALUE.
package config
