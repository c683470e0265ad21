package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/gapmap/internal/mapping"
)

// MappingRef identifies a stored mapping.
type MappingRef struct {
	ID       int64
	MapCount int64
	Created  bool // false if an identical mapping already existed
}

// StoredMapping is a mapping read back from the database.
type StoredMapping struct {
	ID       int64
	MapCount int64
	Mapping  *mapping.Mapping
}

// SaveMapping stores m unless a mapping with the same transcript, sequence,
// strand and exon structure already exists, in which case the existing one
// is returned. New mappings get the next map_count. The header row and its
// exons are written together; a failed exon write removes the header.
func (s *Store) SaveMapping(m *mapping.Mapping) (MappingRef, error) {
	if len(m.Exons) == 0 {
		return MappingRef{}, fmt.Errorf("save mapping %s: %w", m.TranscriptID, mapping.ErrNoExons)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sig := m.Signature()

	var ref MappingRef
	err := s.db.QueryRow(`SELECT id, map_count FROM transcript_maps
		WHERE transcript_id=? AND sequence_id=? AND strand=? AND exon_signature=?`,
		m.TranscriptID, m.SequenceID, m.Strand, sig).Scan(&ref.ID, &ref.MapCount)
	if err == nil {
		return ref, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return MappingRef{}, fmt.Errorf("find mapping: %w", err)
	}

	if err := s.db.QueryRow(`SELECT nextval('transcript_maps_id_seq')`).Scan(&ref.ID); err != nil {
		return MappingRef{}, fmt.Errorf("next mapping id: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(map_count), 0) + 1 FROM transcript_maps`).Scan(&ref.MapCount); err != nil {
		return MappingRef{}, fmt.Errorf("next map count: %w", err)
	}

	if _, err := s.db.Exec(`INSERT INTO transcript_maps
		(id, transcript_id, sequence_id, strand, identity, score, exon_count, min_contig, max_contig, map_count, exon_signature)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ref.ID, m.TranscriptID, m.SequenceID, m.Strand, m.Identity, m.Score,
		int64(m.ExonCount), m.MinContig, m.MaxContig, ref.MapCount, sig); err != nil {
		return MappingRef{}, fmt.Errorf("insert mapping: %w", err)
	}

	if err := s.appendExons(ref.ID, m.Exons); err != nil {
		s.db.Exec("DELETE FROM transcript_maps_exons WHERE map_id=?", ref.ID)
		s.db.Exec("DELETE FROM transcript_maps WHERE id=?", ref.ID)
		return MappingRef{}, err
	}

	ref.Created = true
	return ref, nil
}

// WriteMapping implements mapping.Sink.
func (s *Store) WriteMapping(m *mapping.Mapping) error {
	_, err := s.SaveMapping(m)
	return err
}

// appendExons batch-inserts exon rows using the Appender API.
func (s *Store) appendExons(mapID int64, exons []mapping.Exon) error {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "transcript_maps_exons")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, e := range exons {
		if err := appender.AppendRow(
			mapID, int64(e.Index),
			e.ContigStart, e.ContigEnd,
			e.TranscriptStart, e.TranscriptEnd,
			e.Gap,
		); err != nil {
			return fmt.Errorf("append exon %d: %w", e.Index, err)
		}
	}

	if err := appender.Flush(); err != nil {
		return fmt.Errorf("flush exons: %w", err)
	}
	return nil
}

// FindMappings returns all stored mappings of a transcript with their exons,
// ordered by map_count.
func (s *Store) FindMappings(transcriptID string) ([]StoredMapping, error) {
	rows, err := s.db.Query(`SELECT
		id, map_count, transcript_id, sequence_id, strand,
		identity, score, exon_count, min_contig, max_contig
		FROM transcript_maps
		WHERE transcript_id=?
		ORDER BY map_count`, transcriptID)
	if err != nil {
		return nil, fmt.Errorf("query mappings: %w", err)
	}
	defer rows.Close()

	var out []StoredMapping
	for rows.Next() {
		var sm StoredMapping
		var exonCount int64
		m := &mapping.Mapping{}
		if err := rows.Scan(
			&sm.ID, &sm.MapCount, &m.TranscriptID, &m.SequenceID, &m.Strand,
			&m.Identity, &m.Score, &exonCount, &m.MinContig, &m.MaxContig,
		); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		m.ExonCount = int(exonCount)
		sm.Mapping = m
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mappings: %w", err)
	}

	for i := range out {
		exons, err := s.findExons(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Mapping.Exons = exons
	}
	return out, nil
}

func (s *Store) findExons(mapID int64) ([]mapping.Exon, error) {
	rows, err := s.db.Query(`SELECT
		exon_index, contig_start, contig_end, transcript_start, transcript_end, gap
		FROM transcript_maps_exons
		WHERE map_id=?
		ORDER BY exon_index`, mapID)
	if err != nil {
		return nil, fmt.Errorf("query exons: %w", err)
	}
	defer rows.Close()

	var exons []mapping.Exon
	for rows.Next() {
		var e mapping.Exon
		var index int64
		var gap sql.NullString
		if err := rows.Scan(&index, &e.ContigStart, &e.ContigEnd, &e.TranscriptStart, &e.TranscriptEnd, &gap); err != nil {
			return nil, fmt.Errorf("scan exon: %w", err)
		}
		e.Index = int(index)
		e.Gap = gap.String
		exons = append(exons, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exons: %w", err)
	}
	return exons, nil
}

// MappingCount returns the number of stored mappings.
func (s *Store) MappingCount() (int, error) {
	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM transcript_maps").Scan(&n); err != nil {
		return 0, fmt.Errorf("count mappings: %w", err)
	}
	return int(n), nil
}

// ClearMappings removes all stored mappings and exons.
func (s *Store) ClearMappings() error {
	if _, err := s.db.Exec("DELETE FROM transcript_maps_exons"); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM transcript_maps")
	return err
}
