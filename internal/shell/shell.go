// Package shell implements FSH's sandboxed shell executor:
// builtins cd/pwd, external command dispatch per host shell type,
// environment assembly, concurrent output streaming, directory listing,
// and cancellation.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/NTD-LAB/FSH/internal/config"
	"github.com/NTD-LAB/FSH/internal/pathvalidator"
	"github.com/NTD-LAB/FSH/internal/policy"
	"github.com/NTD-LAB/FSH/internal/protocol"
)

// killGracePeriod is how long a cancelled child gets to exit after SIGTERM
// before the shell escalates to SIGKILL.
const killGracePeriod = 2 * time.Second

// OutputLine is one sanitized line emitted by a running command, tagged
// with its source stream.
type OutputLine struct {
	Stream protocol.OutputStream
	Data   []byte
}

// Result is the terminal outcome of a command.
type Result struct {
	ExitCode        int
	ExecutionTimeMs int64
}

// Shell owns one session's working directory and current child process.
// The working_directory is mutated only by the owning session's reader
// goroutine; Shell itself is not safe for concurrent Execute calls.
type Shell struct {
	folder     *config.FolderConfig
	validator  *pathvalidator.Validator
	workingDir string

	mu      sync.Mutex
	current *exec.Cmd
}

// New constructs a Shell rooted at folder's path.
func New(folder *config.FolderConfig, validator *pathvalidator.Validator) *Shell {
	return &Shell{
		folder:     folder,
		validator:  validator,
		workingDir: validator.Root(),
	}
}

// WorkingDirectory returns the shell's current directory (absolute, host path).
func (s *Shell) WorkingDirectory() string {
	return s.workingDir
}

// Prompt derives the session prompt from shell_type and the cwd relative to root.
func (s *Shell) Prompt() string {
	rel, err := s.validator.GetRelativePath(s.workingDir)
	if err != nil {
		rel = "."
	}

	switch s.folder.ShellType {
	case "powershell":
		return fmt.Sprintf("PS %s> ", rel)
	case "cmd":
		return fmt.Sprintf("%s> ", rel)
	default: // bash, gitbash
		return fmt.Sprintf("%s$ ", rel)
	}
}

// BuiltinResult is returned by builtin commands, which never spawn a subprocess.
type BuiltinResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// TryBuiltin handles `cd` and `pwd`. ok is false if cmd is not a builtin.
func (s *Shell) TryBuiltin(cmd string, args []string) (result BuiltinResult, ok bool) {
	switch strings.ToLower(cmd) {
	case "cd":
		return s.builtinCd(args), true
	case "pwd":
		return s.builtinPwd(), true
	default:
		return BuiltinResult{}, false
	}
}

func (s *Shell) builtinCd(args []string) BuiltinResult {
	root := s.validator.Root()

	if len(args) == 0 {
		s.workingDir = root
		return BuiltinResult{ExitCode: 0}
	}

	target := args[0]

	if target == ".." {
		parent := parentDir(s.workingDir)
		if !strings.HasPrefix(parent, root) {
			return BuiltinResult{ExitCode: 1, Stderr: "Access denied: cannot navigate above folder root"}
		}
		s.workingDir = parent
		return BuiltinResult{ExitCode: 0}
	}

	resolved, err := s.validator.ValidatePath(joinWorkingDir(s.workingDir, target))
	if err != nil {
		return BuiltinResult{ExitCode: 1, Stderr: fmt.Sprintf("Access denied: %v", err)}
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return BuiltinResult{ExitCode: 1, Stderr: fmt.Sprintf("Directory not found: %s", target)}
	}

	s.workingDir = resolved
	return BuiltinResult{ExitCode: 0}
}

func (s *Shell) builtinPwd() BuiltinResult {
	rel, err := s.validator.GetRelativePath(s.workingDir)
	if err != nil {
		rel = "."
	}
	return BuiltinResult{ExitCode: 0, Stdout: rel + "\n"}
}

func parentDir(dir string) string {
	idx := strings.LastIndexByte(strings.TrimRight(dir, "/"), '/')
	if idx <= 0 {
		return "/"
	}
	return dir[:idx]
}

func joinWorkingDir(workingDir, target string) string {
	if target == "" {
		return workingDir
	}
	if target[0] == '/' {
		return target
	}
	return workingDir + "/" + target
}

// Execute validates cmd against path confinement and folder policy, then
// either runs a builtin or spawns the configured host shell with cmd+args.
// Output lines and the terminal Result are delivered on the returned
// channels; the output channel is always closed strictly before the result
// is sent.
func (s *Shell) Execute(ctx context.Context, cmd string, args []string, extraEnv map[string]string) (<-chan OutputLine, <-chan Result, error) {
	full := cmd
	if len(args) > 0 {
		full = cmd + " " + strings.Join(args, " ")
	}

	if err := s.validator.ValidateCommandPath(full); err != nil {
		return nil, nil, err
	}

	decision := policy.Evaluate(s.folder, full)
	if !decision.Allowed {
		return nil, nil, fmt.Errorf("%w: %s", protocol.ErrPermissionDenied, decision.DeniedReason)
	}

	if !policy.HasPermission(s.folder, policy.PermExecute) {
		return nil, nil, fmt.Errorf("%w: folder does not grant execute permission", protocol.ErrPermissionDenied)
	}

	if result, ok := s.TryBuiltin(cmd, args); ok {
		outCh := make(chan OutputLine, 2)
		resultCh := make(chan Result, 1)

		if result.Stdout != "" {
			outCh <- OutputLine{Stream: protocol.StreamStdout, Data: []byte(s.validator.SanitizeOutputPath(result.Stdout))}
		}
		if result.Stderr != "" {
			outCh <- OutputLine{Stream: protocol.StreamStderr, Data: []byte(s.validator.SanitizeOutputPath(result.Stderr))}
		}
		close(outCh)
		resultCh <- Result{ExitCode: result.ExitCode}
		close(resultCh)
		return outCh, resultCh, nil
	}

	return s.executeExternal(ctx, full, decision.SystemAware || s.folder.SystemAware)
}

func (s *Shell) executeExternal(ctx context.Context, full string, systemAware bool) (<-chan OutputLine, <-chan Result, error) {
	program, progArgs := hostShellCommand(s.folder.ShellType, full)

	c := exec.CommandContext(ctx, program, progArgs...)
	c.Dir = s.workingDir
	c.Env = s.buildEnvironment(systemAware)

	stdout, err := c.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: capture stdout: %v", protocol.ErrShellError, err)
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: capture stderr: %v", protocol.ErrShellError, err)
	}

	start := time.Now()
	if err := c.Start(); err != nil {
		return nil, nil, fmt.Errorf("%w: spawn command: %v", protocol.ErrShellError, err)
	}

	s.mu.Lock()
	s.current = c
	s.mu.Unlock()

	outCh := make(chan OutputLine, 64)
	resultCh := make(chan Result, 1)

	var wg sync.WaitGroup
	wg.Add(2)
	go s.streamPipe(&wg, outCh, stdout, protocol.StreamStdout)
	go s.streamPipe(&wg, outCh, stderr, protocol.StreamStderr)

	go func() {
		wg.Wait()
		close(outCh)

		err := c.Wait()
		elapsed := time.Since(start).Milliseconds()

		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()

		exitCode := exitCodeFor(err)
		resultCh <- Result{ExitCode: exitCode, ExecutionTimeMs: elapsed}
		close(resultCh)
	}()

	return outCh, resultCh, nil
}

func (s *Shell) streamPipe(wg *sync.WaitGroup, out chan<- OutputLine, r io.Reader, stream protocol.OutputStream) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := s.validator.SanitizeOutputPath(scanner.Text())
		out <- OutputLine{Stream: stream, Data: []byte(line)}
	}
}

func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		return exitErr.ExitCode()
	}
	return -1
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}

// buildEnvironment assembles the child process environment.
// System-aware commands start from the server process environment with
// working_directory prepended to PATH; ordinary commands start empty with
// only the folder's configured vars plus FSH_ROOT/FSH_MODE.
func (s *Shell) buildEnvironment(systemAware bool) []string {
	if systemAware {
		env := os.Environ()
		for k, v := range s.folder.Env {
			env = append(env, k+"="+v)
		}
		for i, e := range env {
			if strings.HasPrefix(e, "PATH=") {
				env[i] = "PATH=" + s.workingDir + string(os.PathListSeparator) + e[len("PATH="):]
				return env
			}
		}
		return append(env, "PATH="+s.workingDir)
	}

	env := []string{
		"FSH_ROOT=" + s.validator.Root(),
		"FSH_MODE=restricted",
	}
	for k, v := range s.folder.Env {
		env = append(env, k+"="+v)
	}
	return env
}

// hostShellCommand returns (program, args) for shellType running full as a
// single command line. Modeled as a pure function per variant,
// not a virtual dispatch.
func hostShellCommand(shellType, full string) (string, []string) {
	switch shellType {
	case "powershell":
		return "powershell", []string{"-Command", full}
	case "cmd":
		return "cmd", []string{"/c", full}
	default: // bash, gitbash
		return "bash", []string{"-c", full}
	}
}

// Kill terminates the in-flight child, if any, handing off to the
// platform-specific terminate() (shell_unix.go / shell_windows.go).
func (s *Shell) Kill() {
	s.mu.Lock()
	c := s.current
	s.mu.Unlock()

	if c == nil || c.Process == nil {
		return
	}

	terminate(c.Process)

	done := make(chan struct{})
	go func() {
		_, _ = c.Process.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(killGracePeriod):
		_ = c.Process.Kill()
	}
}

// ListFiles resolves path (default: cwd) and lists its entries, directories
// first then files, alphabetical within each group.
func (s *Shell) ListFiles(path string, showHidden bool) ([]protocol.FileEntry, error) {
	target := s.workingDir
	if path != "" {
		resolved, err := s.validator.ValidatePath(path)
		if err != nil {
			return nil, err
		}
		target = resolved
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, fmt.Errorf("%w: read directory: %v", protocol.ErrShellError, err)
	}

	files := make([]protocol.FileEntry, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !showHidden && strings.HasPrefix(name, ".") {
			continue
		}

		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("%w: stat %s: %v", protocol.ErrShellError, name, err)
		}

		abs := target + "/" + name
		rel, err := s.validator.GetRelativePath(abs)
		if err != nil {
			rel = name
		}

		files = append(files, protocol.FileEntry{
			Name:        name,
			Path:        rel,
			IsDirectory: info.IsDir(),
			Size:        info.Size(),
			Modified:    info.ModTime().UTC(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].IsDirectory != files[j].IsDirectory {
			return files[i].IsDirectory
		}
		return files[i].Name < files[j].Name
	})

	return files, nil
}
