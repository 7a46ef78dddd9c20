package objstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API — подмножество клиента S3, используемое пакетом.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store — реализация Store поверх AWS S3.
type S3Store struct {
	client s3API
}

// NewS3Store создаёт S3Store поверх готового клиента S3.
func NewS3Store(client *s3.Client) *S3Store {
	return &S3Store{client: client}
}

// List возвращает имена объектов непосредственно под папкой.
// Переживает пагинацию: одна папка с результатами может содержать
// больше 1000 объектов.
func (s *S3Store) List(ctx context.Context, folder string) ([]string, error) {
	bucket, prefix, err := SplitBucketKey(folder)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}

	var names []string

	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list %s: %v", ErrCheckFailed, folder, err)
		}

		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" {
				continue // сама "папка" как объект нулевого размера
			}
			names = append(names, name)
		}
	}

	return names, nil
}
