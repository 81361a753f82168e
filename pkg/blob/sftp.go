package blob

import (
	"context"
	"io"
	"net"
	"os"
	"path"
	"time"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

type SFTPConfig struct {
	Addr      string
	User      string
	Password  string
	Root      string
	PublicURL string
	// HostKey in authorized_keys format. Empty disables host key verification.
	HostKey string
}

// SFTPStore uploads objects to a static file host over SFTP. A connection is opened per
// upload; image uploads are infrequent admin actions.
type SFTPStore struct {
	cfg SFTPConfig
}

func NewSFTPStore(cfg SFTPConfig) *SFTPStore {
	return &SFTPStore{cfg: cfg}
}

func (s *SFTPStore) Put(ctx context.Context, bucket, object, _ string, r io.Reader) (string, error) {
	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if s.cfg.HostKey != "" {
		pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(s.cfg.HostKey))
		if err != nil {
			return "", errors.Wrap(err, "parse host key")
		}
		hostKeyCallback = ssh.FixedHostKey(pub)
	}

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return "", errors.Wrap(err, "dial sftp")
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, s.cfg.Addr, &ssh.ClientConfig{
		User:            s.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(s.cfg.Password)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         10 * time.Second,
	})
	if err != nil {
		_ = conn.Close()
		return "", errors.Wrap(err, "ssh handshake")
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)
	defer sshClient.Close()

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		return "", errors.Wrap(err, "sftp client")
	}
	defer client.Close()

	object = cleanObject(object)
	dst := path.Join(s.cfg.Root, bucket, object)
	if err := client.MkdirAll(path.Dir(dst)); err != nil {
		return "", errors.Wrap(err, "sftp mkdir")
	}

	f, err := client.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY)
	if err != nil {
		return "", errors.Wrapf(err, "sftp create %s", object)
	}
	defer f.Close()

	if _, err := f.ReadFrom(&ctxReader{ctx: ctx, r: r}); err != nil {
		_ = client.Remove(dst)
		return "", errors.Wrapf(err, "sftp write %s", object)
	}
	return publicURL(s.cfg.PublicURL, bucket, object), nil
}
