// Fire-point sources. The core pipeline only needs coordinate pairs
// in a CRS consistent with the imagery; where they come from, a
// PostGIS table or a GeoJSON document, is this package's concern.
package firepoints

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/nci/gomemcache/memcache"

	"github.com/nci/burnscar/processor"
)

// Source returns the fire detection points of a named collection.
type Source interface {
	GetPoints(collection string) ([]processor.FirePoint, error)
}

// PostgresSource reads fire points from a PostGIS table, optionally
// fronted by a read-through memcache keyed on the query.
type PostgresSource struct {
	db *sql.DB
	mc *memcache.Client
}

func NewPostgresSource(dsn, mcURI string, poolSize, connLimit int) (*PostgresSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(poolSize)
	db.SetMaxOpenConns(connLimit)

	src := &PostgresSource{db: db}
	if mcURI != "" {
		// lazy connection; errors returned in .Get
		src.mc = memcache.New(mcURI)
	}
	return src, nil
}

func (s *PostgresSource) Close() error {
	return s.db.Close()
}

func cacheKey(collection string) string {
	buff := md5.Sum([]byte("fire_points/" + collection))
	return hex.EncodeToString(buff[:])
}

func (s *PostgresSource) GetPoints(collection string) ([]processor.FirePoint, error) {
	var hash string
	if s.mc != nil {
		hash = cacheKey(collection)
		if cached, ok := s.mc.Get(hash); ok == nil {
			var points []processor.FirePoint
			if err := json.Unmarshal(cached.Value, &points); err == nil {
				return points, nil
			}
		}
	}

	rows, err := s.db.Query(
		`select ST_X(geom), ST_Y(geom)
		 from fire_points
		 where collection = $1`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("fire point query for %s failed: %v", collection, err)
	}
	defer rows.Close()

	var points []processor.FirePoint
	for rows.Next() {
		var pt processor.FirePoint
		if err := rows.Scan(&pt.X, &pt.Y); err != nil {
			return nil, err
		}
		points = append(points, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if s.mc != nil {
		// don't care about errors; memcache may not necessarily retain this anyway
		if payload, err := json.Marshal(points); err == nil {
			s.mc.Set(&memcache.Item{Key: hash, Value: payload})
		}
	}

	return points, nil
}
