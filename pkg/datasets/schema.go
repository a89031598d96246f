package datasets

// Schema creates the datasets table. The dataset column is the catalogue key.
const Schema = `
CREATE TABLE IF NOT EXISTS datasets (
    dataset     TEXT PRIMARY KEY,
    reg_user    TEXT NOT NULL,
    ms_host     TEXT NOT NULL,
    volume      TEXT NOT NULL,
    gateway     TEXT NOT NULL,
    username    TEXT NOT NULL,
    user_pkey   TEXT NOT NULL,
    description TEXT NOT NULL
);
`

const selectColumns = `SELECT dataset, reg_user, ms_host, volume, gateway, username, user_pkey, description FROM datasets`
