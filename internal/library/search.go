package library

import (
	"sort"
	"strings"
)

// Search returns indexed files matching the query, most relevant first.
//
// The query is normalized exactly like indexed text, then split into
// terms. A file matches when every term is a prefix of at least one of
// its tokens, which keeps incremental search-as-you-type queries cheap.
// Ranking: higher summed field weight first (title > artist > album),
// then shorter matched tokens (closer to an exact match), then path for
// determinism. An empty query returns no results, not an error.
//
// limit <= 0 means no limit.
func (l *Library) Search(query string, limit int) ([]MediaFile, error) {
	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	type candidate struct {
		score  int
		tokLen int
	}
	var candidates map[int64]*candidate

	// AND semantics: intersect per-term match sets.
	for i, term := range terms {
		matches, err := l.termMatches(term)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, nil
		}
		if i == 0 {
			candidates = make(map[int64]*candidate, len(matches))
			for id, m := range matches {
				candidates[id] = &candidate{score: m.weight, tokLen: m.tokLen}
			}
			continue
		}
		for id, c := range candidates {
			m, ok := matches[id]
			if !ok {
				delete(candidates, id)
				continue
			}
			c.score += m.weight
			c.tokLen += m.tokLen
		}
		if len(candidates) == 0 {
			return nil, nil
		}
	}

	ids := make([]int64, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	files, err := l.filesByIDs(ids)
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		a, b := candidates[files[i].ID], candidates[files[j].ID]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.tokLen != b.tokLen {
			return a.tokLen < b.tokLen
		}
		return files[i].Path < files[j].Path
	})

	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// termMatch holds the best field match of one term against one file.
type termMatch struct {
	weight int
	tokLen int
}

// termMatches finds every file with a token that term is a prefix of,
// keeping the highest-weight field and the shortest matching token.
// The prefix lookup is a range scan on the token primary key.
func (l *Library) termMatches(term string) (map[int64]termMatch, error) {
	query := `
		SELECT file_id, field, MIN(LENGTH(token))
		FROM search_tokens
		WHERE token >= ?`
	args := []any{term}
	if end := prefixEnd(term); end != "" {
		query += ` AND token < ?`
		args = append(args, end)
	}
	query += ` GROUP BY file_id, field`

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make(map[int64]termMatch)
	for rows.Next() {
		var fileID int64
		var field string
		var tokLen int
		if err := rows.Scan(&fileID, &field, &tokLen); err != nil {
			return nil, err
		}
		w := fieldWeight(field)
		m, ok := matches[fileID]
		if !ok || w > m.weight || (w == m.weight && tokLen < m.tokLen) {
			matches[fileID] = termMatch{weight: w, tokLen: tokLen}
		}
	}
	return matches, rows.Err()
}

// filesByIDs fetches records for the given IDs in batches.
func (l *Library) filesByIDs(ids []int64) ([]MediaFile, error) {
	const batchSize = 500

	files := make([]MediaFile, 0, len(ids))
	for start := 0; start < len(ids); start += batchSize {
		end := min(start+batchSize, len(ids))
		batch := ids[start:end]

		placeholders := strings.Repeat("?,", len(batch))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		rows, err := l.db.Query(
			`SELECT `+mediaFileColumns+` FROM media_files WHERE id IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			f, err := scanMediaFile(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			files = append(files, *f)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return files, nil
}

// prefixEnd returns the smallest string greater than every string with
// the given prefix, or "" when no upper bound exists.
func prefixEnd(s string) string {
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}
