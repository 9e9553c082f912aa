package mysql

const upsertRestaurantSQL = `
INSERT INTO restaurants
  (jurisdiction, external_id, name, address, locality, phone, cuisine, grade, raw_grade, score, last_inspected)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name           = VALUES(name),
  address        = VALUES(address),
  locality       = VALUES(locality),
  phone          = VALUES(phone),
  cuisine        = VALUES(cuisine),
  grade          = VALUES(grade),
  raw_grade      = VALUES(raw_grade),
  score          = VALUES(score),
  last_inspected = VALUES(last_inspected),
  updated_at     = CURRENT_TIMESTAMP
`

// History is append-only: INSERT IGNORE leaves existing rows untouched,
// the unique key on (jurisdiction, external_id, inspected_on, grade)
// makes re-ingesting the same feed a no-op.
const insertInspectionsPrefix = "INSERT IGNORE INTO inspections\n" +
	"  (jurisdiction, external_id, inspected_on, grade, violations, critical)\nVALUES "

const insertReviewSQL = `
INSERT INTO user_reviews (jurisdiction, external_id, rating, comment, created_at)
VALUES (?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))
`

const listReviewsSQL = `
SELECT id, jurisdiction, external_id, rating, comment, created_at
FROM user_reviews
WHERE jurisdiction = ? AND external_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const insertSkipSQL = `
INSERT INTO ingest_skips (jurisdiction, http_status, reason)
VALUES (?, ?, ?)
`

const getRestaurantSQL = `
SELECT jurisdiction, external_id, name, address, locality, phone, cuisine,
       grade, raw_grade, score, last_inspected
FROM restaurants
WHERE jurisdiction = ? AND external_id = ?
`

const listInspectionsSQL = `
SELECT inspected_on, grade, violations, critical
FROM inspections
WHERE jurisdiction = ? AND external_id = ?
ORDER BY inspected_on ASC, id ASC
`

// Reviews are intentionally left in place: the restaurant reference is
// weak, so an admin delete must not cascade into user content.
const deleteRestaurantSQL = `DELETE FROM restaurants WHERE jurisdiction = ? AND external_id = ?`
const deleteInspectionsSQL = `DELETE FROM inspections WHERE jurisdiction = ? AND external_id = ?`
