package s3client

import (
	"text2phenotype.com/fsl/logger"
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"strings"
)

var clientLogger = logger.NewLogger("S3Client")
var sdkLogger = logger.NewLogger("S3-SDK")

type EnvironmentConfig struct {
	BucketName  string `envconfig:"MDL_COMN_STORAGE_CONTAINER_NAME" required:"true"`
	T2PEnv      string `envconfig:"T2P_ENV" required:"true"`
	Region      string `envconfig:"MDL_COMN_AWS_REGION_NAME" required:"true"`
	AwsEndpoint string `envconfig:"MDL_COMN_AWS_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"MDL_COMN_AWS_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"MDL_COMN_AWS_ACCESS_KEY" default:""`
}

type Client struct {
	pool   *sessionPool
	bucket string
	region string
	env    EnvironmentConfig
}

func New() (*Client, error) {
	errLogger := clientLogger.With().Caller().Logger()
	env, err := readEnvironment(&errLogger)
	if err != nil {
		clientLogger.Err(err).Msg("Failed to get proper variables from environment")
		return nil, err
	}
	client := &Client{
		bucket: env.BucketName,
		region: env.Region,
		env:    env,
	}
	pool, err := newSessionPool(client.openSession)
	if err != nil {
		return nil, err
	}
	client.pool = pool
	return client, nil
}

func (client *Client) Upload(data string, key string) (*s3manager.UploadOutput, error) {
	params := &s3manager.UploadInput{
		Bucket: &client.bucket,
		Key:    &key,
		Body:   strings.NewReader(data),
	}
	var output *s3manager.UploadOutput
	err := client.withSession(func(sess *session.Session) error {
		var uploadErr error
		output, uploadErr = client.upload(sess, params)
		return uploadErr
	})
	if err != nil {
		return nil, err
	}
	return output, nil
}

func (client *Client) Download(key string) ([]byte, error) {
	params := &s3.GetObjectInput{
		Bucket: &client.bucket,
		Key:    &key,
	}
	var buf []byte
	err := client.withSession(func(sess *session.Session) error {
		var downloadErr error
		buf, downloadErr = client.download(sess, params)
		return downloadErr
	})
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (client *Client) Close() {
	client.pool.shutdown()
}

// withSession runs the call once, reports a failure to the pool and retries
// once with a refreshed session.
func (client *Client) withSession(run func(sess *session.Session) error) error {
	sess, err := client.pool.session()
	if err != nil {
		return err
	}
	if err = run(sess); err == nil {
		return nil
	}
	sess, refreshErr := client.pool.reportFault(err)
	if refreshErr != nil {
		return refreshErr
	}
	return run(sess)
}

func (client *Client) upload(sess *session.Session, params *s3manager.UploadInput) (*s3manager.UploadOutput, error) {
	fslLogger := clientLogger.With().
		Str("key", *params.Key).
		Str("bucket", *params.Bucket).Logger()

	sdkLog := sdkLogger.With().
		Str("key", *params.Key).
		Str("bucket", *params.Bucket).Logger()

	uploader := s3manager.NewUploader(sess.Copy(&aws.Config{Logger: wrapSDKLogger(sdkLog)}))
	fslLogger.Debug().Msg("Uploading the file")
	return uploader.Upload(params)
}

func (client *Client) download(sess *session.Session, params *s3.GetObjectInput) ([]byte, error) {
	fslLogger := clientLogger.With().
		Str("key", *params.Key).
		Str("bucket", *params.Bucket).Logger()

	sdkLog := sdkLogger.With().
		Str("key", *params.Key).
		Str("bucket", *params.Bucket).Logger()

	downloader := s3manager.NewDownloader(sess.Copy(&aws.Config{Logger: wrapSDKLogger(sdkLog)}))
	buf := aws.NewWriteAtBuffer([]byte{})

	fslLogger.Debug().Msg("Downloading file")
	size, err := downloader.Download(buf, params)
	if err != nil {
		fslLogger.Error().Err(err).Msg("Failed to download file")
		return nil, err
	}
	fslLogger.Debug().Msgf("Downloaded %v bytes", size)
	return buf.Bytes(), nil
}

// openSession prefers EC2 instance credentials. When the identity check
// fails it falls back to credentials from the environment.
func (client *Client) openSession() (*session.Session, error) {
	sess, err := session.NewSession(client.ec2Config())
	if err != nil {
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return nil, err
	}
	if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err == nil {
		clientLogger.Info().Msg("S3 session successfully initialized using EC2")
		return sess, nil
	}
	clientLogger.Info().Msg("Could not initialize S3 session using EC2, trying env credentials")
	sess, err = session.NewSession(client.envCredsConfig())
	if err != nil {
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return nil, err
	}
	if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err != nil {
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return nil, errors.New("could not initialize S3 session")
	}
	clientLogger.Info().Msg("S3 session successfully initialized using env credentials")
	return sess, nil
}

func (client *Client) ec2Config() *aws.Config {
	return &aws.Config{
		Region:     aws.String(client.region),
		MaxRetries: aws.Int(4),
		LogLevel:   aws.LogLevel(aws.LogDebug),
	}
}

func (client *Client) envCredsConfig() *aws.Config {
	creds := credentials.NewStaticCredentials(
		client.env.AccessKeyID,
		client.env.AccessKey,
		"")
	if _, err := creds.Get(); err != nil {
		clientLogger.Error().Err(err).Msg("Error with credentials from environment")
		panic(err)
	}
	cfg := aws.NewConfig().
		WithRegion(client.region).
		WithMaxRetries(4).
		WithCredentials(creds).
		WithLogLevel(aws.LogDebug)

	inDevEnv := client.env.T2PEnv == "dev"
	if inDevEnv && len(client.env.AwsEndpoint) > 0 {
		cfg = cfg.WithEndpoint(client.env.AwsEndpoint).
			WithS3ForcePathStyle(true)
	}
	return cfg
}

// sessionPool hands the current session out over a channel and replaces it
// when a caller reports a fault. A nil handout means the last refresh failed.
type sessionPool struct {
	curr    *session.Session
	handout chan *session.Session
	faults  chan error
	done    chan struct{}
	acquire func() (*session.Session, error)
}

func newSessionPool(acquire func() (*session.Session, error)) (*sessionPool, error) {
	sess, err := acquire()
	if err != nil {
		return nil, err
	}
	pool := &sessionPool{
		curr:    sess,
		handout: make(chan *session.Session),
		faults:  make(chan error),
		done:    make(chan struct{}, 1),
		acquire: acquire,
	}
	go pool.serve()
	return pool, nil
}

func (pool *sessionPool) serve() {
	for {
		select {
		case pool.handout <- pool.curr:
		case err := <-pool.faults:
			clientLogger.Error().Err(err).Msg("Caught error while using S3 session, trying to refresh it")
			sess, acquireErr := pool.acquire()
			if acquireErr != nil {
				pool.curr = nil
				clientLogger.Error().Err(acquireErr).Msg("Caught error while refreshing S3 session")
				continue
			}
			pool.curr = sess
			clientLogger.Info().Msg("Successfully refreshed session")
		case <-pool.done:
			clientLogger.Info().Msg("Closing client")
			return
		}
	}
}

func (pool *sessionPool) session() (*session.Session, error) {
	sess := <-pool.handout
	if sess == nil {
		return nil, errors.New("could not get session")
	}
	return sess, nil
}

func (pool *sessionPool) reportFault(err error) (*session.Session, error) {
	var sess *session.Session
	select {
	case pool.faults <- err:
		sess = <-pool.handout
	case sess = <-pool.handout:
	}
	if sess == nil {
		return nil, errors.New("failed to refresh session")
	}
	return sess, nil
}

func (pool *sessionPool) shutdown() {
	pool.done <- struct{}{}
}

func readEnvironment(errLogger *zerolog.Logger) (EnvironmentConfig, error) {
	var config EnvironmentConfig
	err := envconfig.Process("", &config)
	if err != nil {
		errLogger.Err(err).Msg("Got error while processing environment")
		return config, err
	}
	return config, nil
}

type sdkLogAdapter struct {
	fslLogger zerolog.Logger
}

func wrapSDKLogger(fslLogger zerolog.Logger) *sdkLogAdapter {
	return &sdkLogAdapter{fslLogger}
}

func (adapter *sdkLogAdapter) Log(v ...interface{}) {
	adapter.fslLogger.Debug().Msg(fmt.Sprint(v...))
}
