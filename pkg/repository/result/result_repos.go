//nolint:whitespace // can't make both editor and linter happy
package result

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/mpapenbr/snailrace/pkg/model"
	"github.com/mpapenbr/snailrace/pkg/repository"
)

const DefaultLimit = 20

// Filter selects the results returned by List
type Filter struct {
	Track  string // empty means all tracks
	Limit  int
	ByTime bool // fastest first instead of newest first
}

// Create stores the result. A new id is assigned if r.ID is not set.
// ID and RecordStamp of r are updated.
func Create(ctx context.Context, conn repository.Querier, r *model.RaceResult) error {
	if r.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		r.ID = id
	}
	row := conn.QueryRow(ctx, `
	insert into race_result (
		id, track, character, laps, seed, player_place, race_time, finish_order
	) values ($1,$2,$3,$4,$5,$6,$7,$8)
	returning record_stamp
	`,
		r.ID, r.Track, r.Character, r.Laps, int64(r.Seed), //nolint:gosec // stored bitwise
		r.PlayerPlace, r.RaceTime, r.FinishOrder,
	)
	return row.Scan(&r.RecordStamp)
}

func LoadByID(ctx context.Context, conn repository.Querier, id uuid.UUID) (
	*model.RaceResult, error,
) {
	row := conn.QueryRow(ctx, selector+" where id=$1", id)
	return scan(row)
}

func List(ctx context.Context, conn repository.Querier, f Filter) (
	[]*model.RaceResult, error,
) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	order := "record_stamp desc, id desc"
	if f.ByTime {
		order = "race_time asc, record_stamp asc"
	}
	rows, err := conn.Query(ctx,
		selector+" where ($1 = '' or track = $1) order by "+order+" limit $2",
		f.Track, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := []*model.RaceResult{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	return ret, rows.Err()
}

// deletes an entry from the database, returns number of rows deleted.
func DeleteByID(ctx context.Context, conn repository.Querier, id uuid.UUID) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from race_result where id=$1", id)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

const selector = `select id, track, character, laps, seed, player_place,
	race_time, finish_order, record_stamp from race_result`

func scan(row pgx.Row) (*model.RaceResult, error) {
	var item model.RaceResult
	var seed int64
	if err := row.Scan(
		&item.ID, &item.Track, &item.Character, &item.Laps, &seed,
		&item.PlayerPlace, &item.RaceTime, &item.FinishOrder, &item.RecordStamp,
	); err != nil {
		return nil, err
	}
	item.Seed = uint64(seed) //nolint:gosec // stored bitwise
	return &item, nil
}
