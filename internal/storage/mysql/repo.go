package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"cleanplate/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertRestaurant(ctx context.Context, rec domain.Restaurant) error {
	_, err := r.db.ExecContext(ctx, upsertRestaurantSQL,
		rec.Jurisdiction,
		rec.ExternalID,
		rec.Name,
		rec.Address,
		valStr(rec.Locality),
		valStr(rec.Phone),
		valStr(rec.Cuisine),
		string(rec.Grade),
		rec.RawGrade,
		valInt(rec.Score),
		rec.LastInspected,
	)
	return err
}

func (r *Repo) AppendInspections(ctx context.Context, id domain.Identity, ins []domain.Inspection) error {
	if len(ins) == 0 {
		return nil
	}
	values := make([]string, 0, len(ins))
	args := make([]any, 0, len(ins)*6)
	for _, in := range ins {
		viol, _ := json.Marshal(in.Violations)
		values = append(values, "(?,?,?,?,?,?)")
		args = append(args,
			id.Jurisdiction,
			id.ExternalID,
			in.Date,
			string(in.Grade),
			string(viol),
			in.Critical,
		)
	}
	_, err := r.db.ExecContext(ctx, insertInspectionsPrefix+strings.Join(values, ","), args...)
	return err
}

func (r *Repo) LogSkip(ctx context.Context, jurisdiction string, status int, reason string) error {
	if len(reason) > 255 {
		reason = reason[:255]
	}
	_, err := r.db.ExecContext(ctx, insertSkipSQL, jurisdiction, status, reason)
	return err
}

func (r *Repo) DeleteRestaurant(ctx context.Context, id domain.Identity) error {
	if _, err := r.db.ExecContext(ctx, deleteInspectionsSQL, id.Jurisdiction, id.ExternalID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, deleteRestaurantSQL, id.Jurisdiction, id.ExternalID)
	return err
}

func (r *Repo) AddReview(ctx context.Context, rv domain.UserReview) (int64, error) {
	var createdAt any
	if !rv.CreatedAt.IsZero() {
		createdAt = rv.CreatedAt
	}
	res, err := r.db.ExecContext(ctx, insertReviewSQL,
		rv.RestaurantKey.Jurisdiction,
		rv.RestaurantKey.ExternalID,
		valInt(rv.Rating),
		rv.Comment,
		createdAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) ListReviews(ctx context.Context, id domain.Identity, pg domain.PageQuery) (domain.ReviewsPage, error) {
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, id.Jurisdiction, id.ExternalID, pg.Limit)
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	defer rows.Close()

	var out []domain.UserReview
	for rows.Next() {
		var rv domain.UserReview
		var rating sql.NullInt64
		var createdAt sql.NullTime
		if err := rows.Scan(
			&rv.ID,
			&rv.RestaurantKey.Jurisdiction,
			&rv.RestaurantKey.ExternalID,
			&rating,
			&rv.Comment,
			&createdAt,
		); err != nil {
			return domain.ReviewsPage{}, err
		}
		if rating.Valid {
			n := int(rating.Int64)
			rv.Rating = &n
		}
		if createdAt.Valid {
			rv.CreatedAt = createdAt.Time
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return domain.ReviewsPage{}, err
	}
	return domain.ReviewsPage{Items: out}, nil
}

func (r *Repo) GetRestaurant(ctx context.Context, id domain.Identity) (domain.Restaurant, error) {
	row := r.db.QueryRowContext(ctx, getRestaurantSQL, id.Jurisdiction, id.ExternalID)

	rec, err := scanRestaurant(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Restaurant{}, domain.ErrNotFound
		}
		return domain.Restaurant{}, err
	}

	ins, err := r.listInspections(ctx, id)
	if err != nil {
		return domain.Restaurant{}, err
	}
	rec.Inspections = ins
	return rec, nil
}

func (r *Repo) listInspections(ctx context.Context, id domain.Identity) ([]domain.Inspection, error) {
	rows, err := r.db.QueryContext(ctx, listInspectionsSQL, id.Jurisdiction, id.ExternalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Inspection
	for rows.Next() {
		var in domain.Inspection
		var grade string
		var violRaw []byte
		if err := rows.Scan(&in.Date, &grade, &violRaw, &in.Critical); err != nil {
			return nil, err
		}
		in.Grade = domain.Grade(grade)
		if len(violRaw) > 0 {
			_ = json.Unmarshal(violRaw, &in.Violations)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// ListRestaurants builds the filtered listing dynamically; every filter
// in the query is optional.
func (r *Repo) ListRestaurants(ctx context.Context, q domain.RestaurantsQuery) (domain.RestaurantsPage, error) {
	b := sq.Select("jurisdiction", "external_id", "name", "address", "locality", "phone",
		"cuisine", "grade", "raw_grade", "score", "last_inspected").
		From("restaurants").
		OrderBy("last_inspected DESC", "external_id ASC")

	if q.Jurisdiction != nil {
		b = b.Where(sq.Eq{"jurisdiction": *q.Jurisdiction})
	}
	if q.Grade != nil {
		b = b.Where(sq.Eq{"grade": string(*q.Grade)})
	}
	if q.Cuisine != nil {
		b = b.Where(sq.Eq{"cuisine": *q.Cuisine})
	}
	if q.Search != nil {
		b = b.Where(sq.Like{"name": "%" + strings.ToUpper(*q.Search) + "%"})
	}
	if q.InspectedAfter != nil {
		b = b.Where(sq.GtOrEq{"last_inspected": *q.InspectedAfter})
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	b = b.Limit(uint64(limit))

	query, args, err := b.ToSql()
	if err != nil {
		return domain.RestaurantsPage{}, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.RestaurantsPage{}, err
	}
	defer rows.Close()

	var out []domain.Restaurant
	for rows.Next() {
		rec, err := scanRestaurant(rows.Scan)
		if err != nil {
			return domain.RestaurantsPage{}, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return domain.RestaurantsPage{}, err
	}
	return domain.RestaurantsPage{Items: out}, nil
}

// scanRestaurant reads the shared restaurant column list from either a
// Row or Rows scan function.
func scanRestaurant(scan func(...any) error) (domain.Restaurant, error) {
	var rec domain.Restaurant
	var locality, phone, cuisine sql.NullString
	var grade, rawGrade sql.NullString
	var score sql.NullInt64
	var lastInspected sql.NullTime

	if err := scan(
		&rec.Jurisdiction,
		&rec.ExternalID,
		&rec.Name,
		&rec.Address,
		&locality,
		&phone,
		&cuisine,
		&grade,
		&rawGrade,
		&score,
		&lastInspected,
	); err != nil {
		return domain.Restaurant{}, err
	}

	if locality.Valid {
		s := locality.String
		rec.Locality = &s
	}
	if phone.Valid {
		s := phone.String
		rec.Phone = &s
	}
	if cuisine.Valid {
		s := cuisine.String
		rec.Cuisine = &s
	}
	if grade.Valid {
		rec.Grade = domain.Grade(grade.String)
	} else {
		rec.Grade = domain.GradeUnknown
	}
	if rawGrade.Valid {
		rec.RawGrade = rawGrade.String
	}
	if score.Valid {
		n := int(score.Int64)
		rec.Score = &n
	}
	if lastInspected.Valid {
		rec.LastInspected = lastInspected.Time.UTC()
	} else {
		rec.LastInspected = time.Time{}
	}
	return rec, nil
}
