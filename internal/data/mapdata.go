package data

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MapInfo holds metadata for a single map, loaded from map_list.yaml.
type MapInfo struct {
	MapID  int16        `yaml:"map_id"`
	Name   string       `yaml:"name"`
	Width  int32        `yaml:"width"`
	Height int32        `yaml:"height"`
	Events []EventSpawn `yaml:"events"`
}

// EventSpawn places a map event character when the map is set up.
type EventSpawn struct {
	EventID       int32  `yaml:"event_id"`
	Name          string `yaml:"name"`
	X             int32  `yaml:"x"`
	Y             int32  `yaml:"y"`
	Direction     int    `yaml:"direction"`
	Through       bool   `yaml:"through"`
	Priority      string `yaml:"priority"` // "below", "same", "above"
	CharacterName string `yaml:"character_name"`
}

// NormalPriority reports whether the event sits on the character layer and
// therefore blocks other movers.
func (e EventSpawn) NormalPriority() bool {
	return e.Priority == "" || e.Priority == "same"
}

// mapEntry stores loaded tile data + metadata for one map.
type mapEntry struct {
	info  MapInfo
	tiles []byte // flat array [y * width + x]
}

// MapDataTable provides map tile data and metadata lookups.
type MapDataTable struct {
	maps map[int16]*mapEntry
}

// Tile flags: one "blocked" bit per direction, bit = 1 << (d/2 - 1).
const (
	TileBlockDown  byte = 0x01
	TileBlockLeft  byte = 0x02
	TileBlockRight byte = 0x04
	TileBlockUp    byte = 0x08
	TileWall       byte = TileBlockDown | TileBlockLeft | TileBlockRight | TileBlockUp
)

type mapListFile struct {
	Maps []MapInfo `yaml:"maps"`
}

func NewMapDataTable() *MapDataTable {
	return &MapDataTable{maps: make(map[int16]*mapEntry)}
}

// LoadMapData loads map metadata from YAML and tile data from text files.
// yamlPath: path to map_list.yaml
// tileDir: directory containing {mapid}.txt tile files
func LoadMapData(yamlPath, tileDir string) (*MapDataTable, error) {
	raw, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, fmt.Errorf("read map list %s: %w", yamlPath, err)
	}
	var file mapListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse map list: %w", err)
	}

	table := NewMapDataTable()
	for _, info := range file.Maps {
		if info.Width <= 0 || info.Height <= 0 {
			continue
		}
		tiles, err := loadTileFile(tileDir, int(info.MapID), int(info.Width), int(info.Height))
		if err != nil {
			return nil, fmt.Errorf("map %d tiles: %w", info.MapID, err)
		}
		if err := table.Put(info, tiles); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// Put registers a map. tiles must hold width*height flag bytes, row-major by Y.
func (t *MapDataTable) Put(info MapInfo, tiles []byte) error {
	if want := int(info.Width) * int(info.Height); len(tiles) != want {
		return fmt.Errorf("map %d: %d tiles, want %d", info.MapID, len(tiles), want)
	}
	t.maps[info.MapID] = &mapEntry{info: info, tiles: tiles}
	return nil
}

// loadTileFile reads a tile file: one line per row. A row is either
// comma-separated flag bytes or a glyph row ('#' wall, anything else floor).
func loadTileFile(dir string, mapID, width, height int) ([]byte, error) {
	path := filepath.Join(dir, strconv.Itoa(mapID)+".txt")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(strings.TrimSpace(line)) == 0 || line[0] == ';' {
			continue
		}
		rows = append(rows, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ParseTiles(rows, width, height), nil
}

// ParseTiles converts text rows into a flag grid. Missing rows/columns are
// walls so that a short file never opens a hole at the map edge.
func ParseTiles(rows []string, width, height int) []byte {
	tiles := make([]byte, width*height)
	for i := range tiles {
		tiles[i] = TileWall
	}
	for y := 0; y < height && y < len(rows); y++ {
		line := rows[y]
		if strings.Contains(line, ",") {
			for x, tok := range strings.Split(line, ",") {
				if x >= width {
					break
				}
				val, err := strconv.ParseUint(strings.TrimSpace(tok), 10, 8)
				if err != nil {
					val = uint64(TileWall)
				}
				tiles[y*width+x] = byte(val)
			}
			continue
		}
		for x, r := range []rune(line) {
			if x >= width {
				break
			}
			if r == '#' {
				tiles[y*width+x] = TileWall
			} else {
				tiles[y*width+x] = 0
			}
		}
	}
	return tiles
}

// Count returns the number of maps loaded with tile data.
func (t *MapDataTable) Count() int {
	return len(t.maps)
}

// GetInfo returns metadata for a map, or nil if not found.
func (t *MapDataTable) GetInfo(mapID int16) *MapInfo {
	e := t.maps[mapID]
	if e == nil {
		return nil
	}
	return &e.info
}

// IsValid checks if (x,y) lies inside the map.
func (t *MapDataTable) IsValid(mapID int16, x, y int32) bool {
	e := t.maps[mapID]
	if e == nil {
		return false
	}
	return x >= 0 && y >= 0 && x < e.info.Width && y < e.info.Height
}

// IsPassable checks whether the tile at (x,y) may be left (or entered) in
// direction d. d: 2=down, 4=left, 6=right, 8=up.
func (t *MapDataTable) IsPassable(mapID int16, x, y int32, d int) bool {
	if d != 2 && d != 4 && d != 6 && d != 8 {
		return false
	}
	e := t.maps[mapID]
	if e == nil || x < 0 || y < 0 || x >= e.info.Width || y >= e.info.Height {
		return false
	}
	bit := byte(1) << (d/2 - 1)
	return e.tiles[int(y)*int(e.info.Width)+int(x)]&bit == 0
}

// SetTile overwrites the flags of one tile (used by scenarios to open/close doors).
func (t *MapDataTable) SetTile(mapID int16, x, y int32, flags byte) {
	e := t.maps[mapID]
	if e == nil || x < 0 || y < 0 || x >= e.info.Width || y >= e.info.Height {
		return
	}
	e.tiles[int(y)*int(e.info.Width)+int(x)] = flags
}
