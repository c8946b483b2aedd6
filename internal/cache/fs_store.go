package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	shardWidth    = 2
	fileExtension = ".dcm"
)

// NewStore 以 basePath 为根目录构建磁盘缓存，整站复用一份实例。
func NewStore(basePath string) (Store, error) {
	if basePath == "" {
		return nil, errors.New("cache dir required")
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve cache dir: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &fileStore{basePath: abs}, nil
}

// fileStore 不持有任何锁：同一 id 的内容不可变，并发重复写入只会产生冗余工作。
type fileStore struct {
	basePath string
}

func (s *fileStore) Root() string {
	return s.basePath
}

func (s *fileStore) Has(id string) bool {
	_, err := s.Stat(id)
	return err == nil
}

func (s *fileStore) Stat(id string) (Entry, error) {
	filePath, err := s.entryPath(id)
	if err != nil {
		return Entry{}, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	if info.IsDir() {
		return Entry{}, ErrNotFound
	}

	return Entry{
		ID:        id,
		FilePath:  filePath,
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}

func (s *fileStore) Read(id string) ([]byte, error) {
	entry, err := s.Stat(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(entry.FilePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *fileStore) Write(id string, payload []byte) (Entry, error) {
	if existing, err := s.Stat(id); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Entry{}, err
	}

	filePath, err := s.entryPath(id)
	if err != nil {
		return Entry{}, err
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Entry{}, err
	}

	tempFile, err := os.CreateTemp(dir, ".cache-*")
	if err != nil {
		return Entry{}, err
	}
	tempName := tempFile.Name()

	_, err = tempFile.Write(payload)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return Entry{}, err
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return Entry{}, err
	}

	return s.Stat(id)
}

// entryPath 将 id 映射为 <base>/<shard>/<id>.dcm，拒绝任何可能逃逸根目录的 id。
func (s *fileStore) entryPath(id string) (string, error) {
	if len(id) < shardWidth {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if strings.ContainsAny(id, `/\`+"\x00") || strings.Contains(id, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	shard := id[:shardWidth]
	return filepath.Join(s.basePath, shard, id+fileExtension), nil
}
