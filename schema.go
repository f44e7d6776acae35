package lockbox

const schema = `
CREATE TABLE IF NOT EXISTS custodian (
  seed TEXT NOT NULL PRIMARY KEY,
  bridge_pubkey BLOB NOT NULL,
  bridge_seed BLOB
);

CREATE TABLE IF NOT EXISTS release_requests (
  nonce INTEGER PRIMARY KEY AUTOINCREMENT,
  custody_account BLOB NOT NULL,
  bridge_account BLOB NOT NULL,
  locked_funds INTEGER NOT NULL,
  created_ms INTEGER NOT NULL,
  amount INTEGER,
  beneficiary BLOB,
  signature BLOB,
  state INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS releases (
  nonce INTEGER NOT NULL PRIMARY KEY,
  custody_account BLOB NOT NULL,
  beneficiary BLOB NOT NULL,
  amount INTEGER NOT NULL,
  released_ms INTEGER NOT NULL
);
`
