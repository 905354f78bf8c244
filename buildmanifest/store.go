package buildmanifest

import (
	"bytes"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
)

// Store publishes and fetches build manifests to/from an S3 bucket, the
// rendezvous point two independently built processes use to agree their
// record layouts match before trusting each other's type ids.
type Store struct {
	bucket   string
	uploader *s3manager.Uploader
	client   *s3.S3
}

// NewStore returns a Store backed by bucket, using sess for credentials
// and region configuration.
func NewStore(sess *session.Session, bucket string) *Store {
	return &Store{
		bucket:   bucket,
		uploader: s3manager.NewUploader(sess),
		client:   s3.New(sess),
	}
}

// Publish uploads m's encoding to key.
func (s *Store) Publish(key string, m *Manifest) error {
	data, err := Marshal(m)
	if err != nil {
		return errors.Wrap(err, "buildmanifest: encoding manifest")
	}
	_, err = s.uploader.Upload(&s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return errors.Wrapf(err, "buildmanifest: publishing %s", key)
}

// Fetch downloads and decodes the manifest at key.
func (s *Store) Fetch(key string) (*Manifest, error) {
	out, err := s.client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "buildmanifest: fetching %s", key)
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, errors.Wrapf(err, "buildmanifest: reading %s", key)
	}
	m, err := Unmarshal(buf.Bytes())
	return m, errors.Wrapf(err, "buildmanifest: decoding %s", key)
}
