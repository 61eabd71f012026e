// Package tilestore reads and writes single-band rasters stored as raw
// pixel blocks in an SQLite file, and exposes them as a rasterref.Source.
// Blocks hold little-endian cells in row-major order and always span the
// full declared block size; edge blocks are padded with no-data. Blocks
// that were never written read back as no-data, which keeps sparse
// rasters cheap.
package tilestore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-spatial/geom"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdok/rasterref"
	"github.com/pdok/rasterref/gridhelp"
)

// Format is the type tag tile store sources carry in reference records.
const Format = "tilestore"

const (
	createDescriptorSQL = `CREATE TABLE IF NOT EXISTS raster_descriptor (id INTEGER PRIMARY KEY CHECK (id = 0), doc TEXT NOT NULL);`
	createBlocksSQL     = `CREATE TABLE IF NOT EXISTS raster_blocks (block_col INTEGER NOT NULL, block_row INTEGER NOT NULL, data BLOB NOT NULL, PRIMARY KEY (block_col, block_row));`
	insertDescriptorSQL = `INSERT INTO raster_descriptor (id, doc) VALUES (0, ?);`
	selectDescriptorSQL = `SELECT doc FROM raster_descriptor WHERE id = 0;`
	upsertBlockSQL      = `INSERT OR REPLACE INTO raster_blocks (block_col, block_row, data) VALUES (?, ?, ?);`
	selectBlocksSQL     = `SELECT block_col, block_row, data FROM raster_blocks WHERE block_col BETWEEN ? AND ? AND block_row BETWEEN ? AND ?;`
)

// Store is a tile store handle. It implements rasterref.Source.
// Constructing a handle performs no I/O; the database is opened on first
// use, so handles can be decoded from reference records on machines
// where the file is not reachable yet. A Store is safe for concurrent
// reads.
type Store struct {
	path     string
	desc     Descriptor
	cellType rasterref.CellType

	mu sync.Mutex
	db *sql.DB
}

// New returns a handle for a tile store at path without touching disk.
// The descriptor must match the one stored in the file.
func New(path string, desc Descriptor) (*Store, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &Store{path: path, desc: desc, cellType: desc.cellType()}, nil
}

// Open reads the descriptor from an existing tile store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open tile store %v: %w", path, err)
	}
	var doc []byte
	err = db.QueryRow(selectDescriptorSQL).Scan(&doc)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read descriptor from %v: %w", path, err)
	}
	desc, err := parseDescriptor(doc)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{path: path, desc: desc, cellType: desc.cellType(), db: db}, nil
}

// Create initializes a new tile store at path.
func Create(path string, desc Descriptor) (*Store, error) {
	store, err := New(path, desc)
	if err != nil {
		return nil, err
	}
	db, err := store.handle()
	if err != nil {
		return nil, err
	}
	for _, query := range []string{createDescriptorSQL, createBlocksSQL} {
		if _, err := db.Exec(query); err != nil {
			store.Close()
			return nil, fmt.Errorf("initialize tile store %v: %w", path, err)
		}
	}
	doc, err := json.Marshal(&store.desc)
	if err != nil {
		store.Close()
		return nil, err
	}
	if _, err := db.Exec(insertDescriptorSQL, doc); err != nil {
		store.Close()
		return nil, fmt.Errorf("write descriptor to %v: %w", path, err)
	}
	return store, nil
}

func (s *Store) handle() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return nil, fmt.Errorf("open tile store %v: %w", s.path, err)
	}
	s.db = db
	return db, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Descriptor returns a copy of the store's descriptor.
func (s *Store) Descriptor() Descriptor {
	return s.desc
}

func (s *Store) Format() string {
	return Format
}

func (s *Store) URI() string {
	return s.path
}

func (s *Store) CRS() rasterref.CRS {
	return rasterref.CRS(s.desc.CRS)
}

func (s *Store) Extent() geom.Extent {
	return s.desc.Extent
}

func (s *Store) CellType() rasterref.CellType {
	return s.cellType
}

func (s *Store) BandCount() int {
	return s.desc.Bands
}

func (s *Store) Cols() int64 {
	return s.desc.Cols
}

func (s *Store) Rows() int64 {
	return s.desc.Rows
}

func (s *Store) BlockLayout() (rasterref.BlockLayout, bool) {
	return s.desc.blockLayout(), true
}

func (s *Store) NativeTiling() []geom.Extent {
	return rasterref.BlockTiling(s.desc.grid(), s.desc.blockLayout())
}

// blockSize is the byte length of one stored block.
func (s *Store) blockSize() int64 {
	return s.desc.BlockWidth * s.desc.BlockHeight * int64(s.cellType.Size())
}

// WriteBlock stores one native block. data must hold exactly
// BlockWidth x BlockHeight cells; edge blocks are padded, not truncated.
func (s *Store) WriteBlock(blockCol, blockRow int64, data []byte) error {
	if int64(len(data)) != s.blockSize() {
		return fmt.Errorf("block is %v bytes, %vx%v %v needs %v",
			len(data), s.desc.BlockWidth, s.desc.BlockHeight, s.cellType, s.blockSize())
	}
	across := gridhelp.CeilDiv(s.desc.Cols, s.desc.BlockWidth)
	down := gridhelp.CeilDiv(s.desc.Rows, s.desc.BlockHeight)
	if !gridhelp.BetweenInc(blockCol, 0, across-1) || !gridhelp.BetweenInc(blockRow, 0, down-1) {
		return fmt.Errorf("block %v,%v is outside the %vx%v block grid", blockCol, blockRow, across, down)
	}
	db, err := s.handle()
	if err != nil {
		return err
	}
	_, err = db.Exec(upsertBlockSQL, blockCol, blockRow, data)
	if err != nil {
		return fmt.Errorf("write block %v,%v to %v: %w", blockCol, blockRow, s.path, err)
	}
	return nil
}

// Read materializes the pixel window covered by ext. Cells outside the
// grid or in blocks that were never written come back as no-data.
func (s *Store) Read(ext geom.Extent) (*rasterref.Tile, error) {
	grid := s.desc.grid()
	bounds := grid.BoundsFor(ext)
	tile := rasterref.NewNoDataTile(grid.ExtentFor(bounds), s.CRS(), s.cellType, bounds.Cols(), bounds.Rows())

	stored, ok := gridhelp.IntersectBounds(bounds, grid.Full())
	if !ok {
		return tile, nil
	}

	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(selectBlocksSQL,
		stored.MinCol()/s.desc.BlockWidth, stored.MaxCol()/s.desc.BlockWidth,
		stored.MinRow()/s.desc.BlockHeight, stored.MaxRow()/s.desc.BlockHeight)
	if err != nil {
		return nil, fmt.Errorf("read blocks from %v: %w", s.path, err)
	}
	defer rows.Close()

	buf, _ := tile.Data()
	for rows.Next() {
		var blockCol, blockRow int64
		var data []byte
		if err := rows.Scan(&blockCol, &blockRow, &data); err != nil {
			return nil, fmt.Errorf("read blocks from %v: %w", s.path, err)
		}
		if int64(len(data)) != s.blockSize() {
			return nil, fmt.Errorf("block %v,%v in %v is %v bytes, want %v", blockCol, blockRow, s.path, len(data), s.blockSize())
		}
		s.copyBlock(buf, bounds, stored, blockCol, blockRow, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read blocks from %v: %w", s.path, err)
	}
	return tile, nil
}

// copyBlock copies the overlap of one stored block into the window buffer.
func (s *Store) copyBlock(buf []byte, window, stored gridhelp.Bounds, blockCol, blockRow int64, data []byte) {
	blockBounds := gridhelp.Bounds{
		blockCol * s.desc.BlockWidth,
		blockRow * s.desc.BlockHeight,
		(blockCol+1)*s.desc.BlockWidth - 1,
		(blockRow+1)*s.desc.BlockHeight - 1,
	}
	overlap, ok := gridhelp.IntersectBounds(blockBounds, stored)
	if !ok {
		return
	}
	size := int64(s.cellType.Size())
	rowBytes := overlap.Cols() * size
	for row := overlap.MinRow(); row <= overlap.MaxRow(); row++ {
		src := ((row-blockBounds.MinRow())*s.desc.BlockWidth + (overlap.MinCol() - blockBounds.MinCol())) * size
		dst := ((row-window.MinRow())*window.Cols() + (overlap.MinCol() - window.MinCol())) * size
		copy(buf[dst:dst+rowBytes], data[src:src+rowBytes])
	}
}
