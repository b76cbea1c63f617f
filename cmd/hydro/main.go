// Command hydro calibrates lumped rainfall-runoff models against observed
// streamflow. It reads a YAML run file naming the basin, its forcing CSV and
// one or more calibration runs, fills potential evapotranspiration with the
// Oudin formula, drives every run's SCE-UA engine in parallel and writes the
// best simulation and a summary per run.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/gosuri/uiprogress"
	"github.com/maseology/mmio"
	"github.com/sourcegraph/conc/pool"
	"gopkg.in/yaml.v3"

	"github.com/antoinelb/hydro"
	"github.com/antoinelb/hydro/calib"
	"github.com/antoinelb/hydro/metrics"
	"github.com/antoinelb/hydro/pet"
)

type runSpec struct {
	Climate   string  `yaml:"climate"`
	Snow      string  `yaml:"snow"`
	Objective string  `yaml:"objective"`
	Transform string  `yaml:"transform"`
	Ngs       int     `yaml:"ngs"`    // number of complexes
	Kstop     int     `yaml:"kstop"`  // criteria-change window [loops]
	Pcento    float64 `yaml:"pcento"` // criteria-change threshold [%]
	Peps      float64 `yaml:"peps"`   // geometric range threshold
	Maxn      int     `yaml:"maxn"`   // evaluation budget
	Seed      int64   `yaml:"seed"`
	Resume    string  `yaml:"resume"` // optional snapshot to continue from
	Quick     int     `yaml:"quick"`  // >0 runs a blocking DDS with this budget instead
}

type runConfig struct {
	Latitude        float64   `yaml:"latitude"`
	Area            float64   `yaml:"area"` // [km²]
	ElevationBands  []float64 `yaml:"elevation_bands"`
	MedianElevation float64   `yaml:"median_elevation"`
	Forcing         string    `yaml:"forcing"` // csv: day_of_year, precipitation [mm/d], temperature [°C], discharge [m³/s]
	OutDir          string    `yaml:"outdir"`
	Runs            []runSpec `yaml:"runs"`
}

func main() {
	cfgfp := flag.String("c", "hydro.yml", "run configuration file")
	flag.Parse()

	tt := mmio.NewTimer()
	defer tt.Print("calibration complete")

	cfg := loadConfig(*cfgfp)
	d, md, obs := loadBasin(cfg)
	mmio.MakeDir(cfg.OutDir)

	uiprogress.Start()
	defer uiprogress.Stop()

	p := pool.New().WithErrors().WithMaxGoroutines(runtime.GOMAXPROCS(0))
	for _, r := range cfg.Runs {
		p.Go(func() error { return calibrate(cfg, r, d, md, obs) })
	}
	if err := p.Wait(); err != nil {
		log.Fatalln(err)
	}
}

func loadConfig(fp string) *runConfig {
	b, err := os.ReadFile(fp)
	if err != nil {
		log.Fatalf(" hydro: %v\n", err)
	}
	var cfg runConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		log.Fatalf(" hydro: %s: %v\n", fp, err)
	}
	if len(cfg.Runs) == 0 {
		log.Fatalf(" hydro: %s holds no runs\n", fp)
	}
	if cfg.Area <= 0. {
		log.Fatalf(" hydro: basin area %f must be positive\n", cfg.Area)
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "."
	}
	return &cfg
}

// loadBasin reads the forcing CSV, fills PET with the Oudin formula and
// converts observed discharge to specific discharge [mm/d] over the basin.
func loadBasin(cfg *runConfig) (*hydro.Data, *hydro.Metadata, []float64) {
	dat, err := mmio.ReadCSV(cfg.Forcing, 1)
	if err != nil {
		log.Fatalf(" hydro: %s: %v\n", cfg.Forcing, err)
	}
	nt := len(dat)
	doy, precip, temp, obs := make([]int, nt), make([]float64, nt), make([]float64, nt), make([]float64, nt)
	for t, ln := range dat {
		if len(ln) < 4 {
			log.Fatalf(" hydro: %s: expected 4 columns, got %d at line %d\n", cfg.Forcing, len(ln), t+1)
		}
		doy[t] = int(ln[0])
		precip[t] = ln[1]
		temp[t] = ln[2]
		obs[t] = ln[3] * 86.4 / cfg.Area // [m³/s] to [mm/d]
	}

	ep, err := pet.Oudin(temp, doy, cfg.Latitude)
	if err != nil {
		log.Fatalln(err)
	}
	d, err := hydro.NewData(precip, temp, ep, doy)
	if err != nil {
		log.Fatalln(err)
	}
	md := &hydro.Metadata{
		Area:            cfg.Area,
		ElevationBands:  cfg.ElevationBands,
		MedianElevation: cfg.MedianElevation,
	}
	return d, md, obs
}

func calibrate(cfg *runConfig, r runSpec, d *hydro.Data, md *hydro.Metadata, obs []float64) error {
	id := uuid.New().String()[:8]
	name := r.Climate
	if r.Snow != "" {
		name += "+" + r.Snow
	}
	label := fmt.Sprintf(" %s %s/%s", id, name, r.Objective)

	ccfg := calib.Config{
		ClimateModel: r.Climate,
		SnowModel:    r.Snow,
		Objective:    metrics.Objective(r.Objective),
		Transform:    metrics.Transform(r.Transform),
		NComplexes:   r.Ngs,
		KStop:        r.Kstop,
		Pcento:       r.Pcento,
		Peps:         r.Peps,
		MaxEval:      r.Maxn,
		Seed:         r.Seed,
	}

	if r.Quick > 0 {
		params, res, err := calib.Quick(ccfg, r.Quick, d, md, obs)
		if err != nil {
			return err
		}
		return report(cfg, id, label, params, res, nil, obs)
	}

	var s *calib.SCE
	var err error
	if r.Resume != "" {
		s, err = calib.LoadGob(r.Resume)
	} else {
		if s, err = calib.New(ccfg); err == nil {
			err = s.Init(d, md, obs)
		}
	}
	if err != nil {
		return err
	}

	bar := uiprogress.AddBar(r.Maxn).AppendCompleted().PrependElapsed()
	bar.PrependFunc(func(b *uiprogress.Bar) string { return label })

	snapfp := filepath.Join(cfg.OutDir, id+".gob")
	for {
		prog, err := s.Step(d, md, obs)
		if err != nil {
			return err
		}
		bar.Set(min(prog.NEval, r.Maxn))
		if err := s.SaveGob(snapfp); err != nil {
			return err
		}
		if prog.Done {
			bar.Set(r.Maxn)
			return report(cfg, id, label, prog.Params, prog.Metrics, prog.Simulation, obs)
		}
	}
}

// report prints the run summary and, when a simulation is at hand, writes the
// obs/sim series for plotting.
func report(cfg *runConfig, id, label string, params []float64, res metrics.Result, sim, obs []float64) error {
	fmt.Printf("%s  params: %.4g\n", label, params)
	fmt.Printf("%s  rmse: %.4f  nse: %.4f  kge: %.4f  bias: %.4f\n", label, res.RMSE, res.NSE, res.KGE, res.Bias)
	if sim == nil {
		return nil
	}
	t, io, is := make([]interface{}, len(obs)), make([]interface{}, len(obs)), make([]interface{}, len(obs))
	for i := range obs {
		t[i], io[i], is[i] = i, obs[i], sim[i]
	}
	mmio.WriteCSV(filepath.Join(cfg.OutDir, id+".csv"), "t,obs,sim", t, io, is)
	return nil
}
