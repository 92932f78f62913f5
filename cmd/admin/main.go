package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"resumeBuilder/internal/auth"
	"resumeBuilder/internal/config"
	"resumeBuilder/internal/database"
)

func main() {
	var (
		email   = flag.String("email", "", "账号邮箱（创建用户时必填）")
		name    = flag.String("name", "", "显示名称（可选，默认取邮箱前缀）")
		genKeys = flag.Bool("gen-keys", false, "生成 JWT RSA 密钥对并写入配置的路径")
		keyBits = flag.Int("key-bits", 2048, "RSA 密钥长度")
		force   = flag.Bool("force", false, "覆盖已存在的密钥文件")
		dbHost  = flag.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
		dbPort  = flag.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
		dbName  = flag.String("db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
		dbUser  = flag.String("db-user", "", "数据库用户（可选，默认读 POSTGRES_USER）")
		dbPass  = flag.String("db-password", "", "数据库密码（可选，默认读 POSTGRES_PASSWORD）")
		sslMode = flag.String("db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if *genKeys {
		if err := writeKeys(cfg.Auth, *keyBits, *force); err != nil {
			log.Fatalf("generate keys: %v", err)
		}
		fmt.Printf("JWT 密钥已写入：%s, %s\n", cfg.Auth.PrivateKeyPath, cfg.Auth.PublicKeyPath)
	}

	addr := strings.ToLower(strings.TrimSpace(*email))
	if addr == "" {
		if *genKeys {
			return
		}
		log.Fatal("missing required flag: --email")
	}

	dbCfg := overrideDatabase(cfg.Database, *dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	var existing database.User
	switch err := db.Where("email = ?", addr).First(&existing).Error; {
	case err == nil:
		log.Fatalf("user %q already exists", addr)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		log.Fatalf("query user: %v", err)
	}

	password, err := auth.RandomPassword(18)
	if err != nil {
		log.Fatalf("generate password: %v", err)
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	displayName := strings.TrimSpace(*name)
	if displayName == "" {
		displayName, _, _ = strings.Cut(addr, "@")
	}

	user := database.User{Name: displayName, Email: addr, PasswordHash: hashed}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("create user: %v", err)
	}

	fmt.Printf("已创建账号：\n")
	fmt.Printf("邮箱: %s\n", addr)
	fmt.Printf("初始密码: %s\n", password)
	fmt.Printf("提示：该密码仅显示一次。\n")
}

// writeKeys 生成密钥对；已有文件时除非 force 否则拒绝覆盖。
func writeKeys(cfg config.AuthConfig, bits int, force bool) error {
	if !force {
		for _, p := range []string{cfg.PrivateKeyPath, cfg.PublicKeyPath} {
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", p)
			}
		}
	}

	privatePEM, publicPEM, err := auth.GenerateKeyPEM(bits)
	if err != nil {
		return err
	}
	if err := writeFile(cfg.PrivateKeyPath, privatePEM, 0o600); err != nil {
		return err
	}
	return writeFile(cfg.PublicKeyPath, publicPEM, 0o644)
}

func writeFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func overrideDatabase(cfg config.DatabaseConfig, host string, port int, name, user, password, sslmode string) config.DatabaseConfig {
	if strings.TrimSpace(host) != "" {
		cfg.Host = host
	}
	if port > 0 {
		cfg.Port = port
	}
	if strings.TrimSpace(name) != "" {
		cfg.Name = name
	}
	if strings.TrimSpace(user) != "" {
		cfg.User = user
	}
	if password != "" {
		cfg.Password = password
	}
	if strings.TrimSpace(sslmode) != "" {
		cfg.SSLMode = sslmode
	}
	return cfg
}
