package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"

	"github.com/SnellerInc/sneller/aws"
	"github.com/SnellerInc/sneller/aws/s3"
)

// S3Store stores values as objects in one S3 bucket, one object per
// key, under Prefix. It reads through s3.BucketFS.Open and writes
// through BucketFS.Put, so the same request signing, retry, and
// fs.ErrNotExist convention the teacher's proxy cache and CLI tools
// rely on apply here too.
type S3Store struct {
	Key    *aws.SigningKey
	Bucket string
	Prefix string
	Client *http.Client
}

// NewS3Store derives a signing key for bucket from ambient AWS
// credentials and returns a Store rooted at prefix within it.
func NewS3Store(bucket, prefix string) (*S3Store, error) {
	id, secret, region, token, err := aws.AmbientCreds()
	if err != nil {
		return nil, err
	}
	key, err := s3.DeriveForBucket(bucket)("", id, secret, token, region, "s3")
	if err != nil {
		return nil, err
	}
	return &S3Store{Key: key, Bucket: bucket, Prefix: prefix}, nil
}

func (s *S3Store) fs() *s3.BucketFS {
	return &s3.BucketFS{Key: s.Key, Bucket: s.Bucket, Client: s.Client, Ctx: context.Background()}
}

func (s *S3Store) object(key string) string {
	if s.Prefix == "" {
		return key
	}
	return s.Prefix + "/" + key
}

func (s *S3Store) Load(ctx context.Context, key string) ([]byte, error) {
	f, err := s.fs().Open(s.object(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &Miss{Key: key}
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *S3Store) Save(ctx context.Context, key string, value []byte) error {
	_, err := s.fs().Put(s.object(key), value)
	return err
}
