// Package s3tree presents an S3 bucket (or a prefix inside one) as a tree.
//
// Object keys map to paths by prepending "/" after stripping the configured
// prefix. Folders are implied by key prefixes or by empty "dir/" markers.
package s3tree

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/justyntemme/filespanel/internal/debug"
	"github.com/justyntemme/filespanel/internal/gateway"
	"github.com/justyntemme/filespanel/internal/pathutil"
	"github.com/justyntemme/filespanel/internal/tree"
)

var (
	ErrNotFound = errors.New("no such object")
	ErrExists   = errors.New("destination already exists")
	ErrCycle    = errors.New("cannot move a folder into itself")
)

// API is the part of the S3 client the driver uses.
type API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config is the JSON-serializable S3 configuration.
type Config struct {
	Endpoint  string `json:"endpoint"`
	Region    string `json:"region"`
	Bucket    string `json:"bucket"`
	Prefix    string `json:"prefix"`
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`
}

type Bucket struct {
	api    API
	bucket string
	prefix string
	logger *zap.Logger
}

// NewBucket builds an S3 client from cfg. A custom endpoint implies
// path-style addressing (MinIO and friends).
func NewBucket(ctx context.Context, cfg Config, logger *zap.Logger) (*Bucket, error) {
	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return New(client, cfg.Bucket, cfg.Prefix, logger), nil
}

// New wraps an existing client.
func New(api API, bucket, prefix string, logger *zap.Logger) *Bucket {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Bucket{api: api, bucket: bucket, prefix: prefix, logger: logger}
}

func (b *Bucket) Name() string { return "s3" }

// key maps a canonical path to an object key (without trailing slash).
func (b *Bucket) key(p string) string {
	return b.prefix + strings.TrimPrefix(pathutil.Canonical(p), "/")
}

// listPrefix is the key prefix of everything below p.
func (b *Bucket) listPrefix(p string) string {
	k := b.key(p)
	if k == "" || strings.HasSuffix(k, "/") {
		return k
	}
	return k + "/"
}

type object struct {
	key  string
	size int64
	node *tree.Node
}

func (b *Bucket) list(ctx context.Context, prefix string) ([]object, error) {
	var out []object
	p := s3.NewListObjectsV2Paginator(b.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			o := object{key: aws.ToString(obj.Key), size: aws.ToInt64(obj.Size)}
			o.node = &tree.Node{Size: o.size}
			if obj.LastModified != nil {
				o.node.ModTime = *obj.LastModified
			}
			out = append(out, o)
		}
	}
	return out, nil
}

// ReadDirectory lists everything below root and builds the folder
// structure from the keys.
func (b *Bucket) ReadDirectory(ctx context.Context, root string) ([]*tree.Node, error) {
	root = pathutil.Canonical(root)
	if root == "" {
		root = "/"
	}
	prefix := b.listPrefix(root)
	objects, err := b.list(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 && root != "/" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, root)
	}

	top := &tree.Node{Key: root, Path: root, Name: pathutil.Base(root), IsFolder: true, Expanded: true}
	folders := map[string]*tree.Node{root: top}

	var folderFor func(p string) *tree.Node
	folderFor = func(p string) *tree.Node {
		if f, ok := folders[p]; ok {
			return f
		}
		f := &tree.Node{Key: p, Path: p, Name: pathutil.Base(p), IsFolder: true}
		folders[p] = f
		parent := folderFor(pathutil.ParentPath(p, 1))
		parent.Children = append(parent.Children, f)
		return f
	}

	for _, o := range objects {
		rel := strings.TrimPrefix(o.key, prefix)
		if rel == "" {
			continue
		}
		if strings.HasSuffix(rel, "/") {
			folderFor(pathutil.Join(root, strings.TrimSuffix(rel, "/")))
			continue
		}
		p := pathutil.Join(root, rel)
		n := o.node
		n.Key, n.Path, n.Name = p, p, pathutil.Base(p)
		parent := folderFor(pathutil.ParentPath(p, 1))
		parent.Children = append(parent.Children, n)
		debug.Log(debug.IO_ENTRY, "s3: %q size=%d", p, n.Size)
	}

	tree.SortRecursive(top)
	debug.Log(debug.IO, "s3: read %q: %d objects", root, len(objects))
	return []*tree.Node{top}, nil
}

// exists reports whether an object or implied folder sits at key.
func (b *Bucket) exists(ctx context.Context, key string) (bool, error) {
	_, err := b.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	var notFound *types.NotFound
	switch {
	case err == nil:
		return true, nil
	case !errors.As(err, &notFound):
		return false, err
	}

	out, err := b.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(b.bucket),
		Prefix:  aws.String(key + "/"),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, err
	}
	return len(out.Contents) > 0, nil
}

// Move copies every object under from to the destination and then deletes
// the originals. S3 has no rename, so a failure midway can leave both
// copies; a later read shows the true state.
func (b *Bucket) Move(ctx context.Context, from tree.Item, to gateway.MoveSpec) error {
	src, dst := b.key(from.Path), b.key(to.Path)
	if p := pathutil.Canonical(from.Path); p == "/" || p == "" {
		return fmt.Errorf("%w: cannot move the bucket root", ErrNotFound)
	}

	if from.IsFolder && strings.HasPrefix(dst, src+"/") {
		return ErrCycle
	}

	taken, err := b.exists(ctx, dst)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %s", ErrExists, to.Path)
	}

	var pairs [][2]string
	if from.IsFolder {
		objects, err := b.list(ctx, src+"/")
		if err != nil {
			return err
		}
		for _, o := range objects {
			pairs = append(pairs, [2]string{o.key, dst + "/" + strings.TrimPrefix(o.key, src+"/")})
		}
	} else {
		pairs = append(pairs, [2]string{src, dst})
	}
	if len(pairs) == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, from.Path)
	}

	for _, pair := range pairs {
		if _, err := b.api.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:     aws.String(b.bucket),
			CopySource: aws.String(copySource(b.bucket, pair[0])),
			Key:        aws.String(pair[1]),
		}); err != nil {
			return fmt.Errorf("copy %s: %w", pair[0], err)
		}
	}
	for _, pair := range pairs {
		if _, err := b.api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(pair[0]),
		}); err != nil {
			b.logger.Warn("s3 move left source behind", zap.String("key", pair[0]), zap.Error(err))
			return fmt.Errorf("delete %s: %w", pair[0], err)
		}
	}

	b.logger.Debug("s3 move", zap.String("from", src), zap.String("to", dst), zap.Int("objects", len(pairs)))
	return nil
}

func copySource(bucket, key string) string {
	return (&url.URL{Path: bucket + "/" + key}).EscapedPath()
}
