package filesys_test

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/lc/afd/internal/filesys"
	"github.com/lc/afd/internal/mocks"
)

type FilesysTestSuite struct {
	suite.Suite
	dir string
}

func (s *FilesysTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *FilesysTestSuite) TestReadLines() {
	path := filepath.Join(s.dir, "Conf.txt")
	s.Require().NoError(os.WriteFile(path, []byte("# Estados\r\nA B\n\nlast"), 0o644))

	lines, err := filesys.ReadLines(filesys.OS(), path)

	s.Require().NoError(err)
	s.Equal([]string{"# Estados", "A B", "", "last"}, lines)
}

func (s *FilesysTestSuite) TestReadLinesLongLine() {
	// Given a line well past bufio's default 64 KiB token size
	long := strings.Repeat("0", 70000) + "1"
	path := filepath.Join(s.dir, "Cadenas.txt")
	s.Require().NoError(os.WriteFile(path, []byte("1\n"+long+"\n11\n"), 0o644))

	lines, err := filesys.ReadLines(filesys.OS(), path)

	s.Require().NoError(err)
	s.Equal([]string{"1", long, "11"}, lines)
}

func (s *FilesysTestSuite) TestScanLinesTooLong() {
	_, err := filesys.ScanLines(strings.NewReader(strings.Repeat("x", filesys.MaxLineSize+1)))
	s.ErrorIs(err, bufio.ErrTooLong)
}

func (s *FilesysTestSuite) TestReadLinesMissingFile() {
	_, err := filesys.ReadLines(filesys.OS(), filepath.Join(s.dir, "nope.txt"))
	s.Require().Error(err)
	s.True(errors.Is(err, fs.ErrNotExist))
}

func (s *FilesysTestSuite) TestAtomicWrite() {
	dst := filepath.Join(s.dir, "results.txt")
	s.Require().NoError(os.WriteFile(dst, []byte("old"), 0o600))

	err := filesys.AtomicWrite(filesys.OS(), dst, []byte("1 -> Acepta\n"), 0o644)
	s.Require().NoError(err)

	got, err := os.ReadFile(dst)
	s.Require().NoError(err)
	s.Equal("1 -> Acepta\n", string(got))

	fi, err := os.Stat(dst)
	s.Require().NoError(err)
	s.Equal(os.FileMode(0o644), fi.Mode().Perm())

	entries, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	s.Len(entries, 1, "temp file must not be left behind")
}

func (s *FilesysTestSuite) TestAtomicWriteRenameFailureRemovesTemp() {
	m := new(mocks.MockOsFS)
	tmp, err := os.CreateTemp(s.dir, ".afd-*")
	s.Require().NoError(err)

	dst := filepath.Join(s.dir, "out.txt")
	m.On("CreateTemp", s.dir, ".afd-*").Return(tmp, nil)
	m.On("Chmod", tmp.Name(), os.FileMode(0o644)).Return(nil)
	m.On("Rename", tmp.Name(), dst).Return(errors.New("cross-device link"))
	m.On("Remove", mock.Anything).Return(nil)

	err = filesys.AtomicWrite(m, dst, []byte("data"), 0o644)

	s.EqualError(err, "cross-device link")
	m.AssertCalled(s.T(), "Remove", tmp.Name())
	m.AssertNotCalled(s.T(), "Open", mock.Anything)
}

func TestFilesysSuite(t *testing.T) {
	suite.Run(t, new(FilesysTestSuite))
}
