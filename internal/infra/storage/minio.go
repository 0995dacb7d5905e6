package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domain "github.com/bryanwahyu/datashield/internal/domain/analysis"
)

const recordPrefix = "analyses/"

// Store keeps one JSON document per analysis record in a bucket.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

// New buat koneksi MinIO dan pastikan bucket ada
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

// objectKey sorts newest first under a plain lexicographic listing.
func objectKey(rec *domain.Record) string {
	inverted := math.MaxInt64 - rec.CreatedAt.UnixNano()
	return fmt.Sprintf("%s%019d-%s.json", recordPrefix, inverted, rec.ID)
}

// Save writes rec as a new object. Existing objects are never overwritten
// because keys embed the record ID.
func (s *Store) Save(ctx context.Context, rec *domain.Record) error {
	const op = "minio.Save"
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return domain.E(domain.KindPersistenceFailed, op, err)
	}

	_, err = s.client.PutObject(ctx, s.bucketName, objectKey(rec), bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return domain.E(domain.KindPersistenceFailed, op, err)
	}
	return nil
}

// Paginate walks the listing in key order and loads the requested page.
func (s *Store) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Record, error) {
	const op = "minio.Paginate"
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	skip := (page - 1) * pageSize

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := []*domain.Record{}
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{Prefix: recordPrefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, domain.E(domain.KindPersistenceFailed, op, obj.Err)
		}
		if skip > 0 {
			skip--
			continue
		}

		rec, err := s.load(ctx, obj.Key)
		if err != nil {
			return nil, domain.E(domain.KindPersistenceFailed, op, err)
		}
		out = append(out, rec)
		if len(out) == pageSize {
			break
		}
	}
	return out, nil
}

func (s *Store) load(ctx context.Context, key string) (*domain.Record, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	var rec domain.Record
	if err := json.NewDecoder(obj).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &rec, nil
}

// Check reports whether the bucket is reachable.
func (s *Store) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s not found", s.bucketName)
	}
	return nil
}
