package database

import (
	"database/sql"
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/facette/natsort"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// CandidateRow is one line of an election's candidates CSV export.
type CandidateRow struct {
	PersonID          int64
	PersonName        string
	BallotPaperID     string
	PostLabel         string
	PartyECID         string
	PartyName         string
	Elected           sql.NullBool
	PartyListPosition sql.NullInt64
}

// ListCandidatesForElection returns every candidacy in the given election,
// ordered naturally by ballot paper id and then by candidate name. The
// export path reads through database/sql directly: it is a reporting query
// over several tables and squirrel keeps it legible.
func ListCandidatesForElection(db *sql.DB, electionSlug string) ([]CandidateRow, error) {
	queryBuilder := psql.Select(
		"people.id", "people.name",
		"ballots.ballot_paper_id", "posts.label",
		"parties.ec_id", "parties.name",
		"memberships.elected", "memberships.party_list_position",
	).
		From("memberships").
		Join("people ON people.id = memberships.person_id").
		Join("ballots ON ballots.id = memberships.ballot_id").
		Join("posts ON posts.id = ballots.post_id").
		Join("elections ON elections.id = ballots.election_id").
		Join("parties ON parties.id = memberships.party_id").
		Where(sq.Eq{"elections.slug": electionSlug})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListCandidatesForElection: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates for election %s: %w", electionSlug, err)
	}
	defer rows.Close()

	var candidates []CandidateRow
	for rows.Next() {
		var row CandidateRow
		err := rows.Scan(
			&row.PersonID, &row.PersonName,
			&row.BallotPaperID, &row.PostLabel,
			&row.PartyECID, &row.PartyName,
			&row.Elected, &row.PartyListPosition,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate row: %w", err)
		}
		candidates = append(candidates, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidate rows: %w", err)
	}

	sortCandidateRows(candidates)
	return candidates, nil
}

// sortCandidateRows orders rows by natural ballot paper id order (so
// "ward.2" sorts before "ward.10"), breaking ties by candidate name.
func sortCandidateRows(candidates []CandidateRow) {
	ballotIDs := make([]string, 0, len(candidates))
	seen := map[string]bool{}
	for _, row := range candidates {
		if !seen[row.BallotPaperID] {
			seen[row.BallotPaperID] = true
			ballotIDs = append(ballotIDs, row.BallotPaperID)
		}
	}
	natsort.Sort(ballotIDs)
	rank := make(map[string]int, len(ballotIDs))
	for i, id := range ballotIDs {
		rank[id] = i
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if rank[candidates[i].BallotPaperID] != rank[candidates[j].BallotPaperID] {
			return rank[candidates[i].BallotPaperID] < rank[candidates[j].BallotPaperID]
		}
		return candidates[i].PersonName < candidates[j].PersonName
	})
}
