package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"
)

// Data files tend to be produced on one box and unioned on another, so
// the CLI can mirror them through a bucket: `push` uploads local files,
// `fetch` pulls every object under a prefix into a directory, where
// the usual /dir/regex/ union picks them up.

func s3Client(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg), nil
}

// splitURL takes s3://bucket/prefix apart.
func splitURL(url string) (bucket, prefix string, err error) {
	trimmed := strings.TrimPrefix(url, "s3://")
	if trimmed == url || trimmed == "" {
		return "", "", fmt.Errorf("expecting an s3://bucket[/prefix] url, got %q", url)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	bucket = parts[0]
	if len(parts) == 2 {
		prefix = parts[1]
	}
	return bucket, prefix, nil
}

func pushCmd() *cobra.Command {
	var region string
	cmd := &cobra.Command{
		Use:   "push S3URL FILE...",
		Short: "upload data files to a bucket",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			bucket, prefix, err := splitURL(args[0])
			if err != nil {
				return err
			}
			client, err := s3Client(ctx, region)
			if err != nil {
				return err
			}
			for _, file := range args[1:] {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				key := path.Join(prefix, filepath.Base(file))
				_, err = client.PutObject(ctx, &s3.PutObjectInput{
					Bucket: aws.String(bucket),
					Key:    aws.String(key),
					Body:   f,
				})
				f.Close()
				if err != nil {
					return fmt.Errorf("uploading %s: %w", file, err)
				}
				log.Printf("pushed %s to s3://%s/%s", file, bucket, key)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&region, "region", "us-east-1", "bucket region")
	return cmd
}

func fetchCmd() *cobra.Command {
	var region string
	var outDir string
	cmd := &cobra.Command{
		Use:   "fetch S3URL",
		Short: "download every data file under a bucket prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			bucket, prefix, err := splitURL(args[0])
			if err != nil {
				return err
			}
			client, err := s3Client(ctx, region)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
				Bucket: aws.String(bucket),
				Prefix: aws.String(prefix),
			})
			nfiles := 0
			for paginator.HasMorePages() {
				page, err := paginator.NextPage(ctx)
				if err != nil {
					return err
				}
				for _, obj := range page.Contents {
					key := aws.ToString(obj.Key)
					if strings.HasSuffix(key, "/") {
						continue // directory placeholder
					}
					if err := fetchObject(ctx, client, bucket, key, outDir); err != nil {
						return err
					}
					nfiles++
				}
			}
			log.Printf("fetched %d files from s3://%s/%s into %s", nfiles, bucket, prefix, outDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&region, "region", "us-east-1", "bucket region")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory to download into")
	return cmd
}

func fetchObject(ctx context.Context, client *s3.Client, bucket, key, outDir string) error {
	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("downloading %s: %w", key, err)
	}
	defer resp.Body.Close()

	target := filepath.Join(outDir, path.Base(key))
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := f.ReadFrom(resp.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
