package source

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vango-dev/elemtree/internal/errors"
)

// ObjectGetter is the subset of the S3 client used to fetch descriptions.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader opens tree descriptions by URI.
type Loader struct {
	s3    ObjectGetter
	stdin io.Reader
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithS3Client sets the client used for s3:// URIs.
func WithS3Client(c ObjectGetter) LoaderOption {
	return func(l *Loader) {
		l.s3 = c
	}
}

// WithStdin sets the reader used for the "-" URI.
func WithStdin(r io.Reader) LoaderOption {
	return func(l *Loader) {
		l.stdin = r
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{stdin: os.Stdin}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open loads the description at uri: "-" for stdin, s3://bucket/key for
// object storage, anything else is a local path.
func (l *Loader) Open(ctx context.Context, uri string) (*Document, error) {
	switch {
	case uri == "-":
		return Decode(l.stdin)
	case strings.HasPrefix(uri, "s3://"):
		return l.openS3(ctx, uri)
	default:
		return LoadFile(uri)
	}
}

func (l *Loader) openS3(ctx context.Context, uri string) (*Document, error) {
	bucket, key, ok := ParseS3URI(uri)
	if !ok {
		return nil, errors.New("E220").WithDetail("Expected s3://bucket/key, got " + uri)
	}
	if l.s3 == nil {
		return nil, errors.New("E222").WithDetail("No S3 client configured.")
	}

	out, err := l.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if stderrors.As(err, &nsk) {
			return nil, errors.New("E220").WithDetail("No object at " + uri).Wrap(err)
		}
		return nil, errors.New("E222").Wrap(err)
	}
	defer out.Body.Close()

	return Decode(out.Body)
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(uri, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// S3Config configures NewS3Client.
type S3Config struct {
	Region string

	// Endpoint overrides the service endpoint and switches to path-style
	// addressing, as S3-compatible stores expect.
	Endpoint string
}

// NewS3Client creates an S3 client using credentials from the standard
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN
// environment variables.
func NewS3Client(cfg S3Config) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(envCredentials()),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

func envCredentials() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		creds := aws.Credentials{
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "Environment",
		}
		if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
			return aws.Credentials{}, stderrors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
		}
		return creds, nil
	})
}
