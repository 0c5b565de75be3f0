package remote

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"csvimport/csv-import/internal/fileutils"
	"csvimport/csv-import/internal/logging"
	"csvimport/csv-import/internal/validation"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultSFTPPort is used when SFTPConfig.Port is zero.
const DefaultSFTPPort = 22

// SFTPConfig holds the connection settings of the SFTP drop box.
type SFTPConfig struct {
	Host                  string
	Port                  int
	User                  string
	KeyFile               string
	KnownHosts            string
	InsecureIgnoreHostKey bool
	Timeout               time.Duration
}

// SFTPChannel is a Channel on an SFTP server. One connection is kept for
// the lifetime of the channel.
type SFTPChannel struct {
	ssh    *ssh.Client
	client *sftp.Client
	logger logging.Logger
}

func (cfg SFTPConfig) clientConfig() (*ssh.ClientConfig, error) {
	if cfg.User == "" {
		return nil, fmt.Errorf("sftp: user is not set")
	}
	if err := validation.IsPrivateFile(cfg.KeyFile); err != nil {
		return nil, fmt.Errorf("sftp: private key: %w", err)
	}
	key, err := os.ReadFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("sftp: read private key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("sftp: parse private key: %w", err)
	}

	var hostKey ssh.HostKeyCallback
	switch {
	case cfg.InsecureIgnoreHostKey:
		hostKey = ssh.InsecureIgnoreHostKey()
	case cfg.KnownHosts != "":
		hostKey, err = knownhosts.New(cfg.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("sftp: load known hosts: %w", err)
		}
	default:
		return nil, fmt.Errorf("sftp: known_hosts is required unless host key checking is disabled")
	}

	return &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKey,
		Timeout:         cfg.Timeout,
	}, nil
}

// DialSFTP connects to the server described by cfg.
func DialSFTP(ctx context.Context, cfg SFTPConfig, logger logging.Logger) (*SFTPChannel, error) {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("sftp: host is not set")
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultSFTPPort
	}
	clientConfig, err := cfg.clientConfig()
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dialer := net.Dialer{Timeout: cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, transferError("connect", addr, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		_ = conn.Close()
		return nil, transferError("handshake", addr, err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, transferError("open sftp session", addr, err)
	}

	logger.Info("Connected to SFTP server", logging.F("addr", addr), logging.F("user", cfg.User))
	return &SFTPChannel{ssh: sshClient, client: client, logger: logger}, nil
}

// List returns the file names in dir.
func (c *SFTPChannel) List(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := c.client.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() {
			names = append(names, info.Name())
		}
	}
	return names, nil
}

// Get downloads remotePath to localPath.
func (c *SFTPChannel) Get(ctx context.Context, remotePath, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := c.client.Open(remotePath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := fileutils.CreateFile(localPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// Put uploads localPath to remotePath.
func (c *SFTPChannel) Put(ctx context.Context, localPath, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := c.client.Create(remotePath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// Delete removes remotePath.
func (c *SFTPChannel) Delete(ctx context.Context, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.client.Remove(remotePath)
}

// Close ends the SFTP session and the SSH connection.
func (c *SFTPChannel) Close() error {
	sftpErr := c.client.Close()
	sshErr := c.ssh.Close()
	if sftpErr != nil {
		return sftpErr
	}
	return sshErr
}
